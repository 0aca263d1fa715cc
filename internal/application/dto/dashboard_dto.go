package dto

// DailyLendRecord préstamos iniciados en una fecha (serie del panel).
type DailyLendRecord struct {
	Date  string `json:"date"` // formato 2006-01-02
	Count int64  `json:"count"`
}

// DashboardStatsResponse estadísticas globales del panel de administración.
type DashboardStatsResponse struct {
	UserCount        int64             `json:"user_count"`
	BookCount        int64             `json:"book_count"`
	LendRecordCount  int64             `json:"lend_record_count"`
	DailyLendRecords []DailyLendRecord `json:"daily_lend_records"`
}
