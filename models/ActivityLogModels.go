package models

import (
	"time"
)

// ActivityLog represents the activity_logs table
type ActivityLog struct {
	ID           uint      `gorm:"primaryKey;column:id" json:"id" example:"1"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;index" json:"createdAt"`
	UserID       string    `gorm:"column:user_id;type:varchar(36)" json:"userId"`
	UserName     string    `gorm:"column:user_name;not null" json:"userName" example:"Ayesha Khan"`
	EventContext string    `gorm:"column:event_context;not null" json:"eventContext" example:"payment"`
	EventName    string    `gorm:"column:event_name;not null" json:"eventName" example:"payment.paid"`
	Description  string    `gorm:"column:description;not null" json:"description"`
	IPAddress    string    `gorm:"column:ip_address" json:"ipAddress"`
	ProjectID    string    `gorm:"column:project_id;type:varchar(36);index" json:"projectId"`
	EntityID     string    `gorm:"column:entity_id;type:varchar(36)" json:"entityId"`
}

// TableName specifies the table name for ActivityLog
func (ActivityLog) TableName() string {
	return "activity_logs"
}

// ActivityLogListResponse represents the response for activity log list operations
type ActivityLogListResponse struct {
	Success bool          `json:"success" example:"true"`
	Page    int           `json:"page" example:"1"`
	Limit   int           `json:"limit" example:"20"`
	Total   int64         `json:"total" example:"42"`
	Data    []ActivityLog `json:"data"`
}
