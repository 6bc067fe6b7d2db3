package model

// BranchTotal is the number of documents owned by one branch.
type BranchTotal struct {
	BranchID   string `json:"branch_id"`
	BranchCode string `json:"branch_code"`
	BranchName string `json:"branch_name"`
	Total      int    `json:"total"`
}

// ReportSummary aggregates document counts for the reports view.
// ByBranch is only populated for headquarters actors.
type ReportSummary struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
	ByBranch []BranchTotal  `json:"by_branch,omitempty"`
}
