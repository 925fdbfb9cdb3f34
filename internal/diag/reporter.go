package diag

// Reporter is the minimal sink for diagnostics.
type Reporter interface {
	Report(code Code, sev Severity, primary Position, msg string, notes []Note)
}

// BagReporter пишет диагностики в *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(code Code, sev Severity, primary Position, msg string, notes []Note) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{
		Severity: sev, Code: code, Message: msg,
		Primary: primary, Notes: notes,
	})
}

// ReportError is a shortcut for SevError diagnostics.
func ReportError(r Reporter, code Code, primary Position, msg string) {
	if r != nil {
		r.Report(code, SevError, primary, msg, nil)
	}
}

// ReportWarning is a shortcut for SevWarning diagnostics.
func ReportWarning(r Reporter, code Code, primary Position, msg string) {
	if r != nil {
		r.Report(code, SevWarning, primary, msg, nil)
	}
}
