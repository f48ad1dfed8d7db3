package service

import (
	"context"
	"encoding/base64"
	"sync"

	"k8s.io/klog/v2"

	"certificate-service/internal/errs"
	"certificate-service/internal/models"
)

// MaxBatch bounds the number of renders in one batch request.
const MaxBatch = 500

// batchWorkers limits concurrent renders within a batch.
const batchWorkers = 50

// BatchRequest renders one template for many recipients.
type BatchRequest struct {
	Kind   string                 `json:"kind"`
	Format string                 `json:"format,omitempty"`
	Items  []models.RenderRequest `json:"items"`
}

// BatchResult is the outcome of one item. Failures do not stop the batch.
type BatchResult struct {
	Index       int      `json:"index"`
	Success     bool     `json:"success"`
	ContentType string   `json:"contentType,omitempty"`
	DataBase64  string   `json:"data_base64,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// BatchResponse summarizes a batch.
type BatchResponse struct {
	Success bool          `json:"success"`
	Total   int           `json:"total"`
	Results []BatchResult `json:"results"`
}

// RenderBatch renders templateID once per item, concurrently.
func (s *RenderService) RenderBatch(ctx context.Context, templateID string, req BatchRequest) (*BatchResponse, error) {
	if len(req.Items) == 0 {
		return nil, errs.Invalid("render.batch", "no items provided")
	}
	if len(req.Items) > MaxBatch {
		return nil, errs.Invalid("render.batch", "maximum %d items per batch", MaxBatch)
	}
	if req.Kind == "" {
		req.Kind = KindPDF
	}
	if req.Kind != KindPDF && req.Kind != KindImage {
		return nil, errs.Invalid("render.batch", "unknown render kind %q", req.Kind)
	}
	// Fail the whole batch up front for a missing template.
	if _, err := s.templates.Get(ctx, templateID); err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(req.Items))
	var wg sync.WaitGroup
	sem := make(chan struct{}, batchWorkers)

	for i, item := range req.Items {
		wg.Add(1)
		go func(idx int, item models.RenderRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result := BatchResult{Index: idx}
			var (
				out *Output
				err error
			)
			if req.Kind == KindPDF {
				out, err = s.RenderVector(ctx, templateID, item.FieldValues, item.BackgroundVisible)
			} else {
				format := item.Format
				if format == "" {
					format = req.Format
				}
				out, err = s.RenderRaster(ctx, templateID, item.FieldValues, item.BackgroundVisible, format)
			}
			if err != nil {
				result.Error = err.Error()
			} else {
				result.Success = true
				result.ContentType = out.ContentType
				result.DataBase64 = base64.StdEncoding.EncodeToString(out.Data)
				result.Warnings = out.Warnings
			}
			results[idx] = result
		}(i, item)
	}
	wg.Wait()

	successCount := 0
	for _, r := range results {
		if r.Success {
			successCount++
		}
	}
	klog.Infof("batch render %s: %d/%d succeeded", templateID, successCount, len(results))

	return &BatchResponse{
		Success: successCount == len(results),
		Total:   len(results),
		Results: results,
	}, nil
}
