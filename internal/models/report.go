package models

import (
	"time"
)

// ReportType 市民上报类型
type ReportType string

const (
	ReportInfrastructure ReportType = "infrastructure"
	ReportSecurity       ReportType = "security"
	ReportEnvironment    ReportType = "environment"
	ReportTraffic        ReportType = "traffic"
	ReportEmergency      ReportType = "emergency"
	ReportSuggestion     ReportType = "suggestion"
)

// Valid reports whether t is a known report type.
func (t ReportType) Valid() bool {
	switch t {
	case ReportInfrastructure, ReportSecurity, ReportEnvironment,
		ReportTraffic, ReportEmergency, ReportSuggestion:
		return true
	}
	return false
}

// ReportPriority 上报优先级
type ReportPriority string

const (
	PriorityLow    ReportPriority = "low"
	PriorityMedium ReportPriority = "medium"
	PriorityHigh   ReportPriority = "high"
	PriorityUrgent ReportPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p ReportPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ReportStatus 上报处理状态
type ReportStatus string

const (
	ReportPending    ReportStatus = "pending"
	ReportInProgress ReportStatus = "in_progress"
	ReportResolved   ReportStatus = "resolved"
	ReportRejected   ReportStatus = "rejected"
)

// Valid reports whether s is a known report status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportInProgress, ReportResolved, ReportRejected:
		return true
	}
	return false
}

// PopulationReport 市民上报（对应 population_reports 表）
// 状态流转由外部（管理端或老化策略）驱动，核心只消费聚合计数。
type PopulationReport struct {
	ID             string         `json:"id" db:"report_id"`
	Title          string         `json:"title" db:"title"`
	Description    string         `json:"description" db:"description"`
	Type           ReportType     `json:"type" db:"type"`
	Priority       ReportPriority `json:"priority" db:"priority"`
	Status         ReportStatus   `json:"status" db:"status"`
	Latitude       float64        `json:"latitude" db:"latitude"`
	Longitude      float64        `json:"longitude" db:"longitude"`
	Location       string         `json:"location" db:"location"`
	CitizenName    *string        `json:"citizenName,omitempty" db:"citizen_name"`
	CitizenContact *string        `json:"citizenContact,omitempty" db:"citizen_contact"`
	AdminNotes     *string        `json:"adminNotes,omitempty" db:"admin_notes"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	ResolvedAt     *time.Time     `json:"resolvedAt,omitempty" db:"resolved_at"`
}

// ReportFilters 上报查询过滤条件
type ReportFilters struct {
	Status *ReportStatus
	Type   *ReportType
	Before *time.Time // CreatedAt < Before（用于老化扫描）
}

// ReportStatistics 上报统计（按状态/类型/优先级分组计数）
type ReportStatistics struct {
	Total      int                    `json:"total"`
	ByStatus   ReportStatusCounts     `json:"byStatus"`
	ByType     map[ReportType]int     `json:"byType"`
	ByPriority map[ReportPriority]int `json:"byPriority"`
}

// ReportStatusCounts 按状态计数
type ReportStatusCounts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
	Rejected   int `json:"rejected"`
}
