package deck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neura-deck-api/internal/application/outline"
	"neura-deck-api/internal/domain/entity"
	"neura-deck-api/internal/domain/repository"
	"neura-deck-api/internal/infrastructure/llm"
	"neura-deck-api/internal/infrastructure/messaging"
	"neura-deck-api/internal/infrastructure/research"
)

type fakeJobRepo struct {
	jobs      map[string]*entity.GenerationJob
	progress  []int
	messages  []string
	createErr error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*entity.GenerationJob)}
}

func (f *fakeJobRepo) Create(_ context.Context, job *entity.GenerationJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, id string) (*entity.GenerationJob, error) {
	return f.jobs[id], nil
}

func (f *fakeJobRepo) Update(_ context.Context, job *entity.GenerationJob) error {
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) Delete(_ context.Context, id string) error {
	delete(f.jobs, id)
	return nil
}

func (f *fakeJobRepo) List(_ context.Context, _ *repository.JobFilter, _ repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	return nil, nil
}

func (f *fakeJobRepo) MarkRunning(_ context.Context, id string) error {
	job, ok := f.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	job.Start()
	return nil
}

func (f *fakeJobRepo) UpdateProgress(_ context.Context, id string, progress int, message string) error {
	job, ok := f.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	job.UpdateProgress(progress, message)
	f.progress = append(f.progress, progress)
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeJobRepo) SetResult(_ context.Context, id string, result []byte, errMsg string) error {
	job, ok := f.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	if errMsg != "" {
		job.Fail(errMsg)
		return nil
	}
	job.Complete(result)
	return nil
}

func (f *fakeJobRepo) GetPendingJobs(_ context.Context, _ int) ([]*entity.GenerationJob, error) {
	return nil, nil
}

func (f *fakeJobRepo) GetJobStats(_ context.Context) (*repository.JobStats, error) {
	return &repository.JobStats{}, nil
}

type fakeDeckRepo struct {
	decks     map[string]*entity.Deck
	createErr error
}

func newFakeDeckRepo() *fakeDeckRepo {
	return &fakeDeckRepo{decks: make(map[string]*entity.Deck)}
}

func (f *fakeDeckRepo) Create(_ context.Context, deck *entity.Deck) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.decks[deck.ID] = deck
	return nil
}

func (f *fakeDeckRepo) GetByID(_ context.Context, id string) (*entity.Deck, error) {
	return f.decks[id], nil
}

func (f *fakeDeckRepo) Update(_ context.Context, deck *entity.Deck) error {
	f.decks[deck.ID] = deck
	return nil
}

func (f *fakeDeckRepo) Delete(_ context.Context, id string) error {
	delete(f.decks, id)
	return nil
}

func (f *fakeDeckRepo) List(_ context.Context, _ *repository.DeckFilter, _ repository.Pagination) (*repository.PagedResult[*entity.Deck], error) {
	return nil, nil
}

type fakeGatherer struct {
	result research.Result
}

func (f *fakeGatherer) Gather(_ context.Context, _ string) research.Result {
	return f.result
}

type fakeUsageGateway struct {
	response string
	usage    *llm.Usage
	err      error
	calls    int
}

func (f *fakeUsageGateway) GenerateTextWithUsage(_ context.Context, _ string, _ float32, _ int) (string, *llm.Usage, error) {
	f.calls++
	if f.err != nil {
		return "", nil, f.err
	}
	return f.response, f.usage, nil
}

func workerOutlineJSON() string {
	slides := make([]string, 0, 6)
	titles := []string{
		"AI in Logistics",
		"Market Context",
		"Technology Deep Dive",
		"Success Stories",
		"Implementation Roadmap",
		"Summary & Next Steps",
	}
	for i, title := range titles {
		slides = append(slides, fmt.Sprintf(
			`{"slide_number": %d, "title": "%s", "content": "Detailed analysis point covering adoption numbers from 2025 reports"}`,
			i+1, title))
	}
	return "[" + strings.Join(slides, ",") + "]"
}

func newTestWorker(jobs *fakeJobRepo, decks *fakeDeckRepo, gatherer *fakeGatherer, gateway *fakeUsageGateway) *Worker {
	return NewWorker(decks, jobs, nil, gatherer, gateway, nil, outline.Config{})
}

func newDeckGenMessage(t *testing.T, payload messaging.DeckGenJobMessage) *messaging.Message {
	t.Helper()
	msg, err := messaging.NewMessage("1-0", messaging.MessageTypeDeckGen, payload.JobID, payload.DeckID, payload)
	require.NoError(t, err)
	return msg
}

func seedJob(jobs *fakeJobRepo, jobID, deckID string) {
	jobs.jobs[jobID] = entity.NewGenerationJob(jobID, deckID, entity.JobTypeDeckGen, nil)
}

func TestWorkerHandleMessage(t *testing.T) {
	jobs := newFakeJobRepo()
	decks := newFakeDeckRepo()
	seedJob(jobs, "job-1", "deck-1")

	gatherer := &fakeGatherer{result: research.Result{
		Text:           "TOPIC OVERVIEW:\nLogistics automation is growing fast",
		MarketBullets:  []string{"Market hit $12B in 2025", "  ", "CAGR of 23%"},
		SuccessBullets: []string{"DHL cut costs 30% with route AI"},
	}}
	gateway := &fakeUsageGateway{
		response: workerOutlineJSON(),
		usage:    &llm.Usage{Provider: "groq", Model: "llama-3.3-70b", PromptTokens: 900, CompletionTokens: 400},
	}
	worker := newTestWorker(jobs, decks, gatherer, gateway)

	msg := newDeckGenMessage(t, messaging.DeckGenJobMessage{
		JobID: "job-1", DeckID: "deck-1",
		Topic: "AI in Logistics", TemplateID: "theme_2", ChartsEnabled: true,
	})
	require.NoError(t, worker.HandleMessage(context.Background(), msg))

	job := jobs.jobs["job-1"]
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "groq", job.LLMProvider)
	assert.Equal(t, 900, job.TokensPrompt)
	assert.Equal(t, 400, job.TokensComplete)

	deck := decks.decks["deck-1"]
	require.NotNil(t, deck)
	assert.Equal(t, "builtin_2", deck.TemplateID)
	assert.Equal(t, entity.OutlineSourceModel, deck.Source)
	assert.Equal(t, 6, deck.SlideCount)
	assert.Contains(t, []string(deck.SlideTitles), "Market Context")

	var stored entity.Outline
	require.NoError(t, json.Unmarshal(deck.Outline, &stored))
	// 调研条目替换了命中标题的幻灯片内容，空白条目被剔除
	for _, s := range stored.Slides {
		switch s.Title {
		case "Market Context":
			assert.Equal(t, []string{"Market hit $12B in 2025", "CAGR of 23%"}, s.Content)
		case "Success Stories":
			assert.Equal(t, []string{"DHL cut costs 30% with route AI"}, s.Content)
		}
	}

	// 进度按阶段递进
	assert.Equal(t, []int{10, 20, 70}, jobs.progress)
}

func TestWorkerGatewayFailureFallsBack(t *testing.T) {
	jobs := newFakeJobRepo()
	decks := newFakeDeckRepo()
	seedJob(jobs, "job-2", "deck-2")

	gatherer := &fakeGatherer{}
	gateway := &fakeUsageGateway{err: errors.New("all llm providers failed")}
	worker := newTestWorker(jobs, decks, gatherer, gateway)

	msg := newDeckGenMessage(t, messaging.DeckGenJobMessage{
		JobID: "job-2", DeckID: "deck-2", Topic: "Quantum Sensing", TemplateID: "pitch",
	})
	require.NoError(t, worker.HandleMessage(context.Background(), msg))

	// 网关失败不终止任务，落兜底大纲
	job := jobs.jobs["job-2"]
	assert.Equal(t, entity.JobStatusCompleted, job.Status)

	deck := decks.decks["deck-2"]
	require.NotNil(t, deck)
	assert.Equal(t, entity.OutlineSourceFallback, deck.Source)
	assert.Equal(t, 5, deck.SlideCount)
}

func TestWorkerPersistFailureMarksJobFailed(t *testing.T) {
	jobs := newFakeJobRepo()
	decks := newFakeDeckRepo()
	decks.createErr = errors.New("connection refused")
	seedJob(jobs, "job-3", "deck-3")

	gateway := &fakeUsageGateway{response: workerOutlineJSON()}
	worker := newTestWorker(jobs, decks, &fakeGatherer{}, gateway)

	msg := newDeckGenMessage(t, messaging.DeckGenJobMessage{
		JobID: "job-3", DeckID: "deck-3", Topic: "AI in Logistics",
	})
	err := worker.HandleMessage(context.Background(), msg)
	require.Error(t, err)

	assert.Equal(t, entity.JobStatusFailed, jobs.jobs["job-3"].Status)
	assert.NotEmpty(t, jobs.jobs["job-3"].ErrorMessage)
}

func TestWorkerBadPayload(t *testing.T) {
	jobs := newFakeJobRepo()
	worker := newTestWorker(jobs, newFakeDeckRepo(), &fakeGatherer{}, &fakeUsageGateway{})

	msg := &messaging.Message{ID: "1-0", Type: messaging.MessageTypeDeckGen, Payload: []byte("{broken")}
	assert.Error(t, worker.HandleMessage(context.Background(), msg))
}

func TestInjectBulletsNoMatchLeavesOutline(t *testing.T) {
	o := &entity.Outline{Slides: []entity.SlideRecord{
		{SlideNumber: 1, Title: "Intro", Content: []string{"a"}},
	}}
	injectBullets(o, "Market Context", []string{"b1"})
	assert.Equal(t, []string{"a"}, o.Slides[0].Content)
}

func TestInjectBulletsMatchesExpandedTitle(t *testing.T) {
	o := &entity.Outline{Slides: []entity.SlideRecord{
		{SlideNumber: 1, Title: "Market Context: AI in Logistics", Content: []string{"old"}},
	}}
	injectBullets(o, "Market Context", []string{"b1", "b2", "b3", "b4", "b5", "b6"})
	assert.Equal(t, []string{"b1", "b2", "b3", "b4", "b5"}, o.Slides[0].Content)
}
