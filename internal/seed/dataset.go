package seed

// 以下行类型对应导入目录中的各个 CSV 文件，列名沿用原有的 Excel 模板

type SubjectRow struct {
	Name     string `csv:"nombre"`
	Shift    string `csv:"turno"`
	Duration string `csv:"bloques_duracion"`
}

type TeacherRow struct {
	Name     string `csv:"nombre"`
	Email    string `csv:"correo"`
	Subjects string `csv:"materias"` // 以 ";" 分隔的科目名
}

type GroupRow struct {
	Name  string `csv:"nombre"`
	Shift string `csv:"turno"`
}

type AvailabilityRow struct {
	Teacher    string `csv:"docente"`
	Day        string `csv:"dia"`
	Shift      string `csv:"turno"`
	BlockStart int    `csv:"bloque_inicio"`
	BlockEnd   int    `csv:"bloque_fin"`
}

type CurriculumRow struct {
	Group           string `csv:"grupo"`
	Subject         string `csv:"materia"`
	SessionsPerWeek int    `csv:"sesiones_por_semana"`
}

type ReservationRow struct {
	Group      string `csv:"grupo"`
	Subject    string `csv:"materia"`
	Day        string `csv:"dia"`
	Shift      string `csv:"turno"`
	BlockStart int    `csv:"bloque_inicio"`
	BlockEnd   int    `csv:"bloque_fin"`
}

// Dataset 为按名称互相引用的一整套基础数据
type Dataset struct {
	Subjects     []*SubjectRow
	Teachers     []*TeacherRow
	Groups       []*GroupRow
	Availability []*AvailabilityRow
	Curriculum   []*CurriculumRow
	Reservations []*ReservationRow
}

// ImportStats 统计每类数据实际写入和跳过的行数
type ImportStats struct {
	Subjects     int `json:"subjects"`
	Teachers     int `json:"teachers"`
	Groups       int `json:"groups"`
	Availability int `json:"availability"`
	Curriculum   int `json:"curriculum"`
	Reservations int `json:"reservations"`
	Skipped      int `json:"skipped"`
}
