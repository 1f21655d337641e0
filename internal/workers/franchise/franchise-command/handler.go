// internal/workers/franchise/franchise-command/handler.go
package franchisecommand

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "franchise-service/internal/common/errors"
	"franchise-service/internal/common/logger"
	"franchise-service/internal/common/metrics"
	"franchise-service/internal/common/validation"
	"franchise-service/internal/domain"
	"franchise-service/internal/franchise"
	"franchise-service/internal/models"
)

const (
	TaskType = "franchise.command"
)

// Handler runs one franchise operation per job.
type Handler struct {
	config       *Config
	service      franchise.Service
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service franchise.Service, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(started).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err == nil {
		var output *Output
		output, err = h.execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			return
		}
	}

	code := h.errorHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
}

func parseInput(variables string) (*Input, error) {
	if err := validation.FranchiseCommand.ValidateBytes([]byte(variables)).Err(); err != nil {
		return nil, err
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidArgumentError("variables", nil, err)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := requireFields(input); err != nil {
		return nil, err
	}

	svc := h.service
	switch input.Operation {
	case OpCreateFranchise:
		return franchiseOutput(svc.CreateFranchise(ctx, domain.NewFranchise(input.Name)))
	case OpGetFranchise:
		return franchiseOutput(svc.GetFranchiseByID(ctx, input.FranchiseID))
	case OpUpdateFranchiseName:
		return franchiseOutput(svc.UpdateFranchiseName(ctx, input.FranchiseID, input.Name))
	case OpAddBranch:
		return franchiseOutput(svc.AddBranchToFranchise(ctx, input.FranchiseID, domain.NewBranch(input.Name)))
	case OpUpdateBranchName:
		return franchiseOutput(svc.UpdateBranchName(ctx, input.FranchiseID, input.BranchID, input.Name))
	case OpRemoveBranch:
		return franchiseOutput(svc.RemoveBranchFromFranchise(ctx, input.FranchiseID, input.BranchID))
	case OpAddProduct:
		return franchiseOutput(svc.AddProductToBranch(ctx, input.FranchiseID, input.BranchID,
			domain.NewProduct(input.Name, *input.Stock)))
	case OpRemoveProduct:
		return franchiseOutput(svc.RemoveProductFromBranch(ctx, input.FranchiseID, input.BranchID, input.ProductID))
	case OpUpdateProductStock:
		return franchiseOutput(svc.UpdateProductStock(ctx, input.FranchiseID, input.BranchID, input.ProductID, *input.Stock))
	case OpUpdateProductName:
		return franchiseOutput(svc.UpdateProductName(ctx, input.FranchiseID, input.BranchID, input.ProductID, input.Name))

	case OpGetAllFranchises:
		list := []models.Franchise{}
		for f, err := range svc.GetAllFranchises(ctx) {
			if err != nil {
				return nil, err
			}
			list = append(list, models.FranchiseFromDomain(f))
		}
		return &Output{Franchises: &list}, nil

	case OpDeleteFranchise:
		if err := svc.DeleteFranchise(ctx, input.FranchiseID); err != nil {
			return nil, err
		}
		return &Output{Deleted: true}, nil

	case OpFranchiseExists:
		exists, err := svc.FranchiseExists(ctx, input.FranchiseID)
		if err != nil {
			return nil, err
		}
		return &Output{Exists: &exists}, nil

	case OpProductsWithMaxStock:
		result, err := svc.GetProductsWithMaxStockByFranchise(ctx, input.FranchiseID)
		if err != nil {
			return nil, err
		}
		products := models.ProductsWithBranchFromDomain(result)
		return &Output{Products: &products}, nil
	}

	return nil, apperrors.NewInvalidArgumentError("operation", input.Operation, fmt.Errorf("unknown operation"))
}

// requireFields checks the variables each operation needs.
func requireFields(input *Input) error {
	need := map[string][]string{
		OpCreateFranchise:      {"name"},
		OpGetFranchise:         {"franchiseId"},
		OpUpdateFranchiseName:  {"franchiseId", "name"},
		OpDeleteFranchise:      {"franchiseId"},
		OpFranchiseExists:      {"franchiseId"},
		OpAddBranch:            {"franchiseId", "name"},
		OpUpdateBranchName:     {"franchiseId", "branchId", "name"},
		OpRemoveBranch:         {"franchiseId", "branchId"},
		OpAddProduct:           {"franchiseId", "branchId", "name", "stock"},
		OpRemoveProduct:        {"franchiseId", "branchId", "productId"},
		OpUpdateProductStock:   {"franchiseId", "branchId", "productId", "stock"},
		OpUpdateProductName:    {"franchiseId", "branchId", "productId", "name"},
		OpProductsWithMaxStock: {"franchiseId"},
	}[input.Operation]

	for _, field := range need {
		missing := false
		switch field {
		case "franchiseId":
			missing = input.FranchiseID == ""
		case "branchId":
			missing = input.BranchID == ""
		case "productId":
			missing = input.ProductID == ""
		case "name":
			missing = input.Name == ""
		case "stock":
			missing = input.Stock == nil
		}
		if missing {
			return apperrors.NewInvalidArgumentError(field, nil, fmt.Errorf("%s is required for %s", field, input.Operation))
		}
	}
	return nil
}

func franchiseOutput(f *domain.Franchise, err error) (*Output, error) {
	if err != nil {
		return nil, err
	}
	doc := models.FranchiseFromDomain(f)
	return &Output{Franchise: &doc}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err = cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

// Execute runs the operation without a job client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
