package observability

const (
	MUsecaseRequests         = "usecase_requests_total"
	MUsecaseDuration         = "usecase_duration_seconds"
	MBotUpdates              = "bot_updates_total"
	MBotUpdateDuration       = "bot_update_duration_seconds"
	MExternalRequests        = "external_requests_total"
	MExternalRequestDuration = "external_request_duration_seconds"
)
