package model

// DailyUploadCount is the number of uploads created on one UTC calendar day.
type DailyUploadCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

type UploadMetrics struct {
	TotalFiles    int                `json:"totalFiles"`
	TotalStorage  int64              `json:"totalStorage"`
	UploadsPerDay []DailyUploadCount `json:"uploadsPerDay"`
}
