package studypartner

import (
	"context"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QuizGenerator runs the full generation pipeline: prompt construction,
// the completion call, JSON extraction, structural validation and option
// shuffling. It is the single entry point the presentation layer calls.
type QuizGenerator struct {
	client     *CompletionClient
	rng        *rand.Rand
	validate   *validator.Validate
	log        zerolog.Logger
	transcript *LLMLog
}

// NewQuizGenerator wires a pipeline around a completion client.
func NewQuizGenerator(client *CompletionClient, logger zerolog.Logger) *QuizGenerator {
	return &QuizGenerator{
		client:   client,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		validate: validator.New(),
		log:      logger,
	}
}

// SetRand replaces the shuffle's random source, for deterministic tests.
func (qg *QuizGenerator) SetRand(rng *rand.Rand) { qg.rng = rng }

// SetTranscript attaches an optional per-run transcript log.
func (qg *QuizGenerator) SetTranscript(t *LLMLog) { qg.transcript = t }

// GenerateQuiz turns study text into a validated, shuffled quiz. On any
// failure it returns a classified error and nothing else happens: no
// partial quiz exists, and callers must not store anything.
func (qg *QuizGenerator) GenerateQuiz(ctx context.Context, materialID, text string, numQuestions int) (*Quiz, error) {
	req := GenerationRequest{Text: truncateChars(text, MaxMaterialChars), NumQuestions: numQuestions}
	if err := qg.validate.Struct(req); err != nil {
		return nil, errInvalidRequest(err)
	}

	prompt := BuildPrompt(req.Text, req.NumQuestions)
	if qg.transcript != nil {
		qg.transcript.LogRequest(prompt)
	}

	qg.log.Debug().Str("material_id", materialID).Int("questions", req.NumQuestions).Msg("requesting completion")
	raw, err := qg.client.Complete(ctx, prompt)
	if err != nil {
		qg.logOutcome(materialID, err)
		return nil, err
	}
	if qg.transcript != nil {
		qg.transcript.LogResponse(raw)
	}

	payload, err := ExtractQuizJSON(raw)
	if err != nil {
		qg.logOutcome(materialID, err)
		return nil, err
	}

	questions, err := CheckQuiz([]byte(payload))
	if err != nil {
		qg.logOutcome(materialID, err)
		return nil, err
	}

	ShuffleOptions(questions, qg.rng)

	quiz := &Quiz{
		ID:         uuid.NewString(),
		MaterialID: materialID,
		Questions:  questions,
		CreatedAt:  time.Now(),
	}
	qg.logOutcome(materialID, nil)
	qg.log.Info().Str("quiz_id", quiz.ID).Str("material_id", materialID).Int("questions", len(questions)).Msg("quiz generated")
	return quiz, nil
}

func (qg *QuizGenerator) logOutcome(materialID string, err error) {
	if qg.transcript != nil {
		qg.transcript.LogOutcome(err)
	}
	if err != nil {
		qg.log.Warn().Err(err).Str("material_id", materialID).Msg("quiz generation failed")
	}
}
