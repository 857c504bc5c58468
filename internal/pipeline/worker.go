// internal/pipeline/worker.go
package pipeline

import (
	"context"
	stderrors "errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"nalk-analytics/internal/common/camunda"
	"nalk-analytics/internal/common/errors"
	"nalk-analytics/internal/common/logger"
)

// TaskType runs the whole pipeline as one BPMN service task.
const TaskType = "nalk-ai-answer"

type JobInput struct {
	Question string `json:"question"`
}

// Worker adapts the pipeline to a Zeebe job handler.
type Worker struct {
	pipeline     *Pipeline
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewWorker(p *Pipeline, log logger.Logger) *Worker {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Worker{
		pipeline:     p,
		logger:       scoped,
		errorHandler: errors.NewErrorHandler(scoped),
	}
}

func (w *Worker) Handle(client worker.JobClient, job entities.Job) {
	w.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx := context.Background()

	var input JobInput
	if err := camunda.DecodeVariables(job, &input); err != nil {
		w.errorHandler.HandleJobError(ctx, client, job, errors.NewInvalidInputError(err.Error()))
		return
	}

	result, err := w.pipeline.Answer(ctx, input.Question)
	if err != nil {
		if stderrors.Is(err, ErrEmptyQuestion) {
			w.errorHandler.HandleJobError(ctx, client, job, errors.NewInvalidQuestionError(err.Error()))
			return
		}
		w.errorHandler.HandleJobError(ctx, client, job, errors.NewAnswerCompositionFailedError(err))
		return
	}

	camunda.CompleteJob(client, job, result, w.logger)
}
