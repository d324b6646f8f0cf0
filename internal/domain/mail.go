package domain

// ExperimentMailData 为排课完成通知邮件中使用的数据
type ExperimentMailData struct {
	ExperimentID int64   `json:"experimentID"`
	Scope        Scope   `json:"scope"`
	Generations  int     `json:"generations"`
	BestFinal    int     `json:"bestFinal"`
	MeanFinal    float64 `json:"meanFinal"`
	TotalSeconds float64 `json:"totalSeconds"`
	FinalMetrics Metrics `json:"finalMetrics"`
}
