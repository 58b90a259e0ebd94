package errors

// Error code constants. Errors carry code + params; human text is advisory
// and transport layers may re-render it.

// Complaint error codes.
const (
	CodeComplaintNotFound = "COMPLAINT_NOT_FOUND"
	CodeComplaintInvalid  = "COMPLAINT_INVALID"
)

// Infrastructure report error codes.
const (
	CodeReportNotFound = "REPORT_NOT_FOUND"
	CodeReportInvalid  = "REPORT_INVALID"
)

// Workflow error codes.
const (
	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodeScheduledDateReq  = "SCHEDULED_DATE_REQUIRED"
	CodeActualCostReq     = "ACTUAL_COST_REQUIRED"
	CodeAssigneeInvalid   = "ASSIGNEE_INVALID"
	CodeActorForbidden    = "ACTOR_PERMISSION_DENIED"
)

// Directory error codes.
const (
	CodeUserNotFound = "USER_NOT_FOUND"
	CodeUserInactive = "USER_INACTIVE"
	CodeRoleNotFound = "ROLE_NOT_FOUND"
)

// Content error codes (news, announcements, media, settings).
const (
	CodeNewsNotFound         = "NEWS_NOT_FOUND"
	CodeAnnouncementNotFound = "ANNOUNCEMENT_NOT_FOUND"
	CodeMediaNotFound        = "MEDIA_NOT_FOUND"
	CodeSettingNotFound      = "SETTING_NOT_FOUND"
	CodeContentInvalid       = "CONTENT_INVALID"
)

// Validation and storage error codes.
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)
