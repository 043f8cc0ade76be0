// internal/models/audit_log.go
package models

type AuditLog struct {
	BaseModel
	RequestID  string `json:"request_id" gorm:"size:36;index"`
	UserID     *uint  `json:"user_id" gorm:"index"`
	Username   string `json:"username" gorm:"size:50"`
	Action     string `json:"action" gorm:"size:100;not null;index"`
	Resource   string `json:"resource" gorm:"size:50;index"`
	RecordID   string `json:"record_id" gorm:"size:64"`
	StatusCode int    `json:"status_code"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"type:text"`
	Details    JSONB  `json:"details" gorm:"type:jsonb"`
}
