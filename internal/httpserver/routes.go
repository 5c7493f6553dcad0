package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mpre5ley/tts-eval-platform/internal/batch"
	"github.com/mpre5ley/tts-eval-platform/internal/benchmark"
	"github.com/mpre5ley/tts-eval-platform/internal/httpserver/httputil"
	"github.com/mpre5ley/tts-eval-platform/internal/models"
	"github.com/mpre5ley/tts-eval-platform/internal/providers"
	"github.com/mpre5ley/tts-eval-platform/internal/services/evaluation"
	"github.com/mpre5ley/tts-eval-platform/internal/services/reporting"
	"github.com/mpre5ley/tts-eval-platform/internal/storage/blob"
	"github.com/mpre5ley/tts-eval-platform/internal/store"
)

func registerAPIRoutes(app *fiber.App, deps Deps) {
	api := app.Group("/api/v1")

	api.Get("/providers", handleListProviders)
	api.Get("/providers/:provider/voices", handleListVoices(deps))
	api.Delete("/providers/:provider/voices/cache", handleInvalidateVoices(deps))

	api.Post("/synthesize", handleSynthesize(deps))
	api.Post("/synthesize/batch", handleSynthesizeBatch(deps))

	api.Get("/sessions", handleListSessions(deps))
	api.Get("/sessions/:id", handleGetSession(deps))
	api.Get("/evaluations", handleListEvaluations(deps))
	api.Get("/evaluations/:id", handleGetEvaluation(deps))
	api.Get("/audio/*", handleGetAudio(deps))

	api.Get("/reports/comparison", handleComparison(deps))
	api.Get("/reports/:provider", handleProviderReport(deps))
	api.Post("/reports/reset", handleResetMetrics(deps))

	api.Post("/batch/upload", handleBatchUpload(deps))
	api.Post("/batch/execute", handleBatchExecute(deps))

	api.Post("/benchmarks", handleRunBenchmark(deps))
	api.Get("/benchmarks", handleListBenchmarks(deps))
	api.Get("/benchmarks/:id", handleGetBenchmark(deps))
}

func handleListProviders(c *fiber.Ctx) error {
	defs := providers.DefaultDefinitions()
	out := make([]fiber.Map, 0, len(defs))
	for _, def := range defs {
		out = append(out, fiber.Map{
			"name":        def.Name,
			"description": def.Description,
			"streaming":   def.Streaming,
		})
	}
	return c.JSON(fiber.Map{"providers": out})
}

func handleListVoices(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provider := c.Params("provider")
		if !deps.Manager.Known(provider) {
			return httputil.WriteError(c, fiber.StatusNotFound, "unknown provider "+provider)
		}
		var voices []models.Voice
		if deps.VoiceCache != nil {
			voices = deps.VoiceCache.Voices(c.UserContext(), provider)
		} else {
			voices = deps.Manager.Voices(c.UserContext(), provider)
		}
		return c.JSON(fiber.Map{"provider": provider, "voices": voices})
	}
}

func handleInvalidateVoices(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provider := c.Params("provider")
		if deps.VoiceCache != nil {
			if err := deps.VoiceCache.Invalidate(c.UserContext(), provider); err != nil {
				return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
			}
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type synthesizeRequest struct {
	Text      string                  `json:"text"`
	Provider  string                  `json:"provider"`
	VoiceID   string                  `json:"voice_id"`
	Streaming bool                    `json:"streaming"`
	Options   models.SynthesisOptions `json:"options"`
}

func handleSynthesize(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req synthesizeRequest
		if err := c.BodyParser(&req); err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
		}
		configs := []models.ProviderConfig{{Provider: req.Provider, VoiceID: req.VoiceID, Options: req.Options}}
		out, err := deps.Evaluation.Run(c.UserContext(), req.Text, configs, req.Streaming)
		if err != nil {
			return writeRunError(c, err)
		}
		return c.JSON(out)
	}
}

type synthesizeBatchRequest struct {
	Text      string                  `json:"text"`
	Configs   []models.ProviderConfig `json:"configs"`
	Streaming bool                    `json:"streaming"`
}

func handleSynthesizeBatch(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req synthesizeBatchRequest
		if err := c.BodyParser(&req); err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
		}
		out, err := deps.Evaluation.Run(c.UserContext(), req.Text, req.Configs, req.Streaming)
		if err != nil {
			return writeRunError(c, err)
		}
		return c.JSON(out)
	}
}

func handleListSessions(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		offset := c.QueryInt("offset", 0)
		sessions, err := deps.Store.ListSessions(c.UserContext(), limit, offset)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"sessions": sessions})
	}
}

func handleGetSession(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, "invalid session id")
		}
		session, evals, err := deps.Evaluation.Session(c.UserContext(), id)
		if errors.Is(err, store.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusNotFound, "session not found")
		}
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"session": session, "evaluations": evals})
	}
}

func handleListEvaluations(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := store.EvaluationFilter{
			Provider:    c.Query("provider"),
			SuccessOnly: c.QueryBool("success_only", false),
			Limit:       c.QueryInt("limit", 50),
		}
		evals, err := deps.Evaluation.Evaluations(c.UserContext(), filter)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"evaluations": evals})
	}
}

func handleGetEvaluation(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, "invalid evaluation id")
		}
		ev, err := deps.Evaluation.Evaluation(c.UserContext(), id)
		if errors.Is(err, store.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusNotFound, "evaluation not found")
		}
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(ev)
	}
}

func handleResetMetrics(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deleted, err := deps.Evaluation.ResetMetrics(c.UserContext())
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"evaluations_deleted": deleted})
	}
}

func handleGetAudio(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Artifacts == nil {
			return httputil.WriteError(c, fiber.StatusNotFound, "audio storage not configured")
		}
		key := c.Params("*")
		body, info, err := deps.Artifacts.Get(c.UserContext(), key)
		if errors.Is(err, blob.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusNotFound, "audio not found")
		}
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
		}
		defer body.Close()
		data, err := io.ReadAll(body)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		return c.Send(data)
	}
}

func reportOptions(c *fiber.Ctx) reporting.Options {
	opts := reporting.Options{Limit: c.QueryInt("limit", 0)}
	if hours := c.QueryInt("since_hours", 0); hours > 0 {
		since := time.Now().Add(-time.Duration(hours) * time.Hour)
		opts.Since = &since
	}
	return opts
}

func handleProviderReport(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provider := c.Params("provider")
		if !deps.Manager.Known(provider) {
			return httputil.WriteError(c, fiber.StatusNotFound, "unknown provider "+provider)
		}
		report, err := deps.Reporting.ProviderReport(c.UserContext(), provider, reportOptions(c))
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(report)
	}
}

func handleComparison(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reports, err := deps.Reporting.Comparison(c.UserContext(), reportOptions(c))
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"providers": reports})
	}
}

func handleBatchUpload(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, "multipart file field is required")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, "could not open upload")
		}
		defer file.Close()

		tasks, err := deps.Batch.Parse(file)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{"tasks": tasks})
	}
}

type batchExecuteRequest struct {
	Tasks     []batch.Task            `json:"tasks"`
	Configs   []models.ProviderConfig `json:"configs"`
	Streaming bool                    `json:"streaming"`
}

func handleBatchExecute(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req batchExecuteRequest
		if err := c.BodyParser(&req); err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
		}
		outcomes, err := deps.Batch.Execute(c.UserContext(), req.Tasks, req.Configs, req.Streaming)
		if err != nil {
			return writeRunError(c, err)
		}
		return c.JSON(fiber.Map{"outcomes": outcomes})
	}
}

func handleRunBenchmark(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req benchmark.Request
		if err := c.BodyParser(&req); err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
		}
		out, err := deps.Benchmark.Run(c.UserContext(), req)
		if err != nil {
			switch {
			case errors.Is(err, benchmark.ErrNoTexts),
				errors.Is(err, benchmark.ErrNoConfigs),
				errors.Is(err, benchmark.ErrTooManyTexts),
				errors.Is(err, benchmark.ErrIterations):
				return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
			default:
				return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
			}
		}
		return c.JSON(out)
	}
}

func handleListBenchmarks(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		offset := c.QueryInt("offset", 0)
		runs, err := deps.Store.ListBenchmarks(c.UserContext(), limit, offset)
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"benchmarks": benchmarkViews(runs)})
	}
}

func handleGetBenchmark(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return httputil.WriteError(c, fiber.StatusBadRequest, "invalid benchmark id")
		}
		run, err := deps.Store.GetBenchmark(c.UserContext(), id)
		if errors.Is(err, store.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusNotFound, "benchmark not found")
		}
		if err != nil {
			return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(benchmarkView(run))
	}
}

// benchmarkView re-inlines the stored JSON documents so clients see structured
// texts/configs/summary instead of base64 bytes.
func benchmarkView(run store.BenchmarkRun) fiber.Map {
	view := fiber.Map{
		"id":         run.ID,
		"name":       run.Name,
		"status":     run.Status,
		"iterations": run.Iterations,
		"created_at": run.CreatedAt,
	}
	if run.CompletedAt != nil {
		view["completed_at"] = run.CompletedAt
	}
	for field, doc := range map[string][]byte{"texts": run.Texts, "configs": run.Configs, "summary": run.Summary} {
		if len(doc) > 0 {
			view[field] = json.RawMessage(doc)
		}
	}
	return view
}

func benchmarkViews(runs []store.BenchmarkRun) []fiber.Map {
	views := make([]fiber.Map, 0, len(runs))
	for _, run := range runs {
		views = append(views, benchmarkView(run))
	}
	return views
}

func writeRunError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, evaluation.ErrEmptyText),
		errors.Is(err, evaluation.ErrTextTooLong),
		errors.Is(err, evaluation.ErrNoProviders),
		errors.Is(err, batch.ErrNoTasks),
		errors.Is(err, batch.ErrTooManyTasks):
		return httputil.WriteError(c, fiber.StatusBadRequest, err.Error())
	default:
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
}
