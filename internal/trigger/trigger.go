// Package trigger starts the batch refinement job when raw partitions land
// in the bucket.
package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"

	"github.com/sabarim/b3quotes/internal/apperr"
	"github.com/sabarim/b3quotes/internal/objectstore"
)

// ManifestArg is the job argument carrying the triggering objects.
const ManifestArg = "--ingestion_manifest"

// Response statuses.
const (
	StatusIgnored = "ignored"
	StatusStarted = "started"
)

// Response is what the handler returns to the invoker.
type Response struct {
	Status   string               `json:"status"`
	JobRunID string               `json:"jobRunId,omitempty"`
	Objects  []objectstore.Object `json:"objects,omitempty"`
}

// JobStarter starts a named job run and returns its run id.
type JobStarter interface {
	StartJob(ctx context.Context, jobName string, args map[string]string) (string, error)
}

// GlueJobAPI is the subset of the Glue client used to start jobs.
type GlueJobAPI interface {
	StartJobRun(ctx context.Context, in *glue.StartJobRunInput, optFns ...func(*glue.Options)) (*glue.StartJobRunOutput, error)
}

// GlueStarter starts AWS Glue job runs.
type GlueStarter struct {
	client GlueJobAPI
}

// NewGlueStarter wraps a Glue client.
func NewGlueStarter(client GlueJobAPI) *GlueStarter {
	return &GlueStarter{client: client}
}

func (g *GlueStarter) StartJob(ctx context.Context, jobName string, args map[string]string) (string, error) {
	out, err := g.client.StartJobRun(ctx, &glue.StartJobRunInput{
		JobName:   aws.String(jobName),
		Arguments: args,
	})
	if err != nil {
		return "", apperr.Remote("glue", "StartJobRun", err)
	}
	return aws.ToString(out.JobRunId), nil
}

// Handler turns object-created notifications into one job run.
type Handler struct {
	JobName string
	Starter JobStarter
	Log     *slog.Logger
}

// Handle starts the job with the objects in event as its manifest. An event
// without usable objects is ignored and starts nothing.
func (h *Handler) Handle(ctx context.Context, event events.S3Event) (Response, error) {
	if h.JobName == "" {
		return Response{}, &apperr.ConfigurationError{Key: "GLUE_JOB_NAME"}
	}
	log := h.Log.With("component", "trigger", "job", h.JobName)
	log.Info("incoming event", "records", len(event.Records))

	objects := Objects(event)
	if len(objects) == 0 {
		log.Warn("no S3 objects found in the event payload")
		return Response{Status: StatusIgnored}, nil
	}

	payload, err := json.Marshal(objects)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode manifest: %w", err)
	}
	args := map[string]string{ManifestArg: string(payload)}
	log.Info("starting job", "arguments", args)

	runID, err := h.Starter.StartJob(ctx, h.JobName, args)
	if err != nil {
		return Response{}, err
	}
	log.Info("job started", "job_run_id", runID)
	return Response{Status: StatusStarted, JobRunID: runID, Objects: objects}, nil
}

// Objects extracts (bucket, key) pairs from event in record order. Records
// missing either are skipped. Keys are URL-decoded when the decoded form is
// available.
func Objects(event events.S3Event) []objectstore.Object {
	var out []objectstore.Object
	for _, rec := range event.Records {
		bucket := rec.S3.Bucket.Name
		key := rec.S3.Object.URLDecodedKey
		if key == "" {
			key = rec.S3.Object.Key
		}
		if bucket == "" || key == "" {
			continue
		}
		out = append(out, objectstore.Object{Bucket: bucket, Key: key})
	}
	return out
}
