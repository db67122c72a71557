package utils

import (
	"github.com/Luismorlan/pingbot/utils/dotenv"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func datadogEnv() string {
	if dotenv.IsProdEnv() {
		return "production"
	}
	return "development"
}

// StartTracer starts the Datadog tracer for service.
func StartTracer(service string) {
	tracer.Start(
		tracer.WithService(service),
		tracer.WithEnv(datadogEnv()),
	)
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}
