package domain

type ValidationSection struct {
	OK     []string `json:"ok"`
	Issues []string `json:"issues"`
}

// ValidationReport 为排课前对基础数据的检查结果
type ValidationReport struct {
	Valid        bool              `json:"valid"`
	TotalIssues  int               `json:"totalIssues"`
	Teachers     ValidationSection `json:"teachers"`
	Subjects     ValidationSection `json:"subjects"`
	Groups       ValidationSection `json:"groups"`
	Availability ValidationSection `json:"availability"`
	Curriculum   ValidationSection `json:"curriculum"`
	Reservations ValidationSection `json:"reservations"`
}
