package tracing

// Span names.
const (
	SpanHighlightPass   = "highlight.pass"
	SpanCoordinatorPass = "coordinator.pass"
	SpanSettingsSave    = "settings.save"
	SpanSettingsLoad    = "settings.load"
)

// Span attribute keys.
const (
	AttrRuleCount       = "highlight.rules"
	AttrSpanCount       = "highlight.spans"
	AttrCandidateCount  = "highlight.candidates"
	AttrDiagnosticCount = "highlight.diagnostics"
	AttrTextRunes       = "document.runes"
	AttrDocumentPath    = "document.path"
	AttrRulesVersion    = "rules.version"
	AttrFrameSeq        = "frame.seq"
	AttrSurfaceCount    = "surface.count"
	AttrSurfaceID       = "surface.id"
	AttrStoreBackend    = "store.backend"
	AttrIssueCount      = "settings.issues"
	AttrRuleID          = "rule.id"
	AttrErrorMessage    = "error.message"
)

// Span event names.
const (
	EventRuleFailed      = "rule.failed"
	EventPassSkipped     = "pass.skipped"
	EventSurfaceDetached = "surface.detached"
)
