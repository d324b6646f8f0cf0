package domain

import "time"

// Experiment 记录一次排课运行的参数和结果，便于之后对比
type Experiment struct {
	ID               int64              `json:"id"`
	Scope            Scope              `json:"scope"`
	Generations      int                `json:"generations"`
	PopulationSize   int                `json:"populationSize"`
	EliteCount       int                `json:"eliteCount"`
	MutationRate     float64            `json:"mutationRate"`
	Seed             *int64             `json:"seed"`
	GroupsTotal      int                `json:"groupsTotal"`
	GroupsMorning    int                `json:"groupsMorning"`
	GroupsAfternoon  int                `json:"groupsAfternoon"`
	BestFinal        int                `json:"bestFinal"`
	MeanFinal        float64            `json:"meanFinal"`
	TotalSeconds     float64            `json:"totalSeconds"`
	FinalMetrics     Metrics            `json:"finalMetrics"`
	Log              []GenerationRecord `json:"log,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}
