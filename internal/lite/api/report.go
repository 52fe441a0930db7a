package api

import (
	"net/http"

	"github.com/rollbar/rollbar-go"
	"github.com/rs/zerolog"
)

// Reporter receives server errors after they are logged.
type Reporter interface {
	Report(r *http.Request, err error, user *Principal)
}

// RollbarConfig identifies this deployment to rollbar.
type RollbarConfig struct {
	Token       string
	Environment string
	CodeVersion string
	ServerHost  string
}

type rollbarReporter struct {
	logger zerolog.Logger
}

// NewRollbarReporter configures the global rollbar client. With an empty
// token reporting is disabled and errors are only logged.
func NewRollbarReporter(cfg RollbarConfig, logger zerolog.Logger) Reporter {
	rollbar.SetToken(cfg.Token)
	rollbar.SetEnvironment(cfg.Environment)
	rollbar.SetCodeVersion(cfg.CodeVersion)
	rollbar.SetServerHost(cfg.ServerHost)
	rollbar.SetEnabled(cfg.Token != "")
	return &rollbarReporter{logger: logger}
}

func (r *rollbarReporter) Report(req *http.Request, err error, user *Principal) {
	if user != nil {
		rollbar.SetPerson(user.Subject, user.Subject, "")
	} else {
		rollbar.ClearPerson()
	}
	rollbar.RequestError(rollbar.ERR, req, err)
}

// CloseReporter flushes queued reports.
func CloseReporter() {
	rollbar.Close()
}

type nopReporter struct{}

func (nopReporter) Report(*http.Request, error, *Principal) {}
