package domain

import "time"

// The types below are the read-only contracts consumed by the reporting and
// advisory tools that share the analytical store with the loader. The
// ingestion core never calls them.

// StoreUsage summarizes store-level job metadata for the cost report.
type StoreUsage struct {
	PeriodStart   time.Time `json:"period_start"`
	BytesBilled   int64     `json:"bytes_billed"`
	EstimatedCost float64   `json:"estimated_cost"`
	QueryCount    int64     `json:"query_count"`
}

// TableStats describes one table's layout for the schema optimization advisor.
type TableStats struct {
	TableName        string `json:"table_name"`
	RowCount         int64  `json:"row_count"`
	SizeBytes        int64  `json:"size_bytes"`
	PartitioningType string `json:"partitioning_type,omitempty"`
	ClusteringFields int    `json:"clustering_fields"`
}
