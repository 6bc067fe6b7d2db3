package model

// Role is the closed set of actor roles. No hierarchy is implied between them.
type Role string

const (
	RoleHQAdmin     Role = "HQ_ADMIN"
	RoleBranchAdmin Role = "BRANCH_ADMIN"
	RoleAuditor     Role = "AUDITOR"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleHQAdmin, RoleBranchAdmin, RoleAuditor:
		return true
	}
	return false
}

// Status is the lifecycle state of a document.
type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusReviewed  Status = "REVIEWED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// Valid reports whether s is one of the four document states.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusReviewed, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// DocumentType classifies a document. Only assessment applications exist today.
type DocumentType string

const DocumentTypeAssessmentApplication DocumentType = "ASSESSMENT_APPLICATION"

// AttachmentKind distinguishes payment evidence from other files.
type AttachmentKind string

const (
	AttachmentPaymentReceipt AttachmentKind = "PAYMENT_RECEIPT"
	AttachmentSupporting     AttachmentKind = "SUPPORTING"
)

// Valid reports whether k is a known attachment kind.
func (k AttachmentKind) Valid() bool {
	return k == AttachmentPaymentReceipt || k == AttachmentSupporting
}

// AuditAction enumerates the facts recorded in the audit log.
type AuditAction string

const (
	AuditLogin            AuditAction = "LOGIN"
	AuditDocumentCreated  AuditAction = "DOCUMENT_CREATED"
	AuditDocumentUpdated  AuditAction = "DOCUMENT_UPDATED"
	AuditStatusChanged    AuditAction = "STATUS_CHANGED"
	AuditDocumentRejected AuditAction = "DOCUMENT_REJECTED"
	AuditFileUploaded     AuditAction = "FILE_UPLOADED"
	AuditUserCreated      AuditAction = "USER_CREATED"
	AuditUserUpdated      AuditAction = "USER_UPDATED"
	AuditUserEnabled      AuditAction = "USER_ENABLED"
	AuditUserDisabled     AuditAction = "USER_DISABLED"
	AuditBranchCreated    AuditAction = "BRANCH_CREATED"
	AuditBranchUpdated    AuditAction = "BRANCH_UPDATED"
	AuditBranchDeleted    AuditAction = "BRANCH_DELETED"
)

// EntityType names the kind of record an audit entry refers to.
type EntityType string

const (
	EntityDocument   EntityType = "DOCUMENT"
	EntityAttachment EntityType = "ATTACHMENT"
	EntityUser       EntityType = "USER"
	EntityBranch     EntityType = "BRANCH"
)
