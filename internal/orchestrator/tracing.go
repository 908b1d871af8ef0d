package orchestrator

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// tracer records subject, stage and worker spans. It is a no-op unless the
// host process installs a TracerProvider.
var tracer = otel.Tracer("github.com/dusk-indust/finpanel/internal/orchestrator")

func subjectAttr(subject string) attribute.KeyValue {
	return attribute.String("panel.subject", subject)
}

func stageAttr(stage Stage) attribute.KeyValue {
	return attribute.String("panel.stage", string(stage))
}

func workerAttr(name WorkerName) attribute.KeyValue {
	return attribute.String("panel.worker", string(name))
}
