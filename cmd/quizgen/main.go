package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"studypartner"
)

func main() {
	var (
		inputFile    = flag.String("file", "", "File with study text (default: read stdin)")
		numQuestions = flag.Int("questions", studypartner.DefaultNumQuestions, "Number of questions to generate (3-15)")
		outputFile   = flag.String("output", "", "Output file for quiz JSON (default: stdout)")
		apiKey       = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		model        = flag.String("model", "", "Completion model (default from OPENAI_MODEL)")
		playMode     = flag.Bool("play", false, "Take the quiz interactively after generating")
		transcript   = flag.String("transcript", "", "Directory for a generation transcript log")
		verbose      = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	cfg := studypartner.LoadConfig()
	if *apiKey != "" {
		cfg.APIKey = *apiKey
	}
	if *model != "" {
		cfg.Model = *model
	}

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	log := studypartner.SetupLogger(level, cfg.LogFormat)

	if cfg.APIKey == "" {
		log.Fatal().Msg("OpenAI API key is required. Use -api-key or set OPENAI_API_KEY.")
	}

	text, err := readText(*inputFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read study text")
	}

	client := studypartner.NewCompletionClient(cfg, log)
	generator := studypartner.NewQuizGenerator(client, log)

	store := studypartner.NewQuizStore()
	material, err := store.AddMaterial(text)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid study text")
	}

	if *transcript != "" {
		tlog, err := studypartner.NewLLMLog(*transcript, material.ID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open transcript")
		}
		defer tlog.Close()
		generator.SetTranscript(tlog)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	quiz, err := generator.GenerateQuiz(ctx, material.ID, material.Text, *numQuestions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate quiz")
	}

	if *playMode {
		playQuiz(quiz)
		return
	}

	output, err := json.MarshalIndent(quiz, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal quiz")
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatal().Err(err).Msg("Failed to write output file")
		}
		log.Info().Str("file", *outputFile).Msg("Quiz saved")
		return
	}
	fmt.Println(string(output))
}

func readText(path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// playQuiz runs a single-player pass through the quiz on the terminal.
func playQuiz(quiz *studypartner.Quiz) {
	fmt.Printf("Quiz ready: %d questions. Answer with 1-%d.\n\n", len(quiz.Questions), optionCount(quiz))

	scanner := bufio.NewScanner(os.Stdin)
	correct := 0

	for i, q := range quiz.Questions {
		fmt.Printf("Question %d: %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			fmt.Printf("  %d. %s\n", j+1, opt)
		}

		choice := askChoice(scanner, len(q.Options))
		picked := q.Options[choice-1]
		if picked == q.Answer {
			correct++
			fmt.Println("Correct!")
		} else {
			fmt.Printf("Incorrect. The answer was: %s\n", q.Answer)
		}
		if q.Explanation != "" {
			fmt.Printf("Explanation: %s\n", q.Explanation)
		}
		fmt.Println()
	}

	total := len(quiz.Questions)
	fmt.Printf("Final score: %d/%d (%.1f%%)\n", correct, total, float64(correct)/float64(total)*100)
}

func askChoice(scanner *bufio.Scanner, options int) int {
	for {
		fmt.Print("Your answer: ")
		if !scanner.Scan() {
			os.Exit(0)
		}
		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err == nil && n >= 1 && n <= options {
			return n
		}
		fmt.Printf("Please enter a number between 1 and %d.\n", options)
	}
}

func optionCount(quiz *studypartner.Quiz) int {
	if len(quiz.Questions) == 0 {
		return 0
	}
	return len(quiz.Questions[0].Options)
}
