package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/medialens/medialens/internal/config"
	"github.com/medialens/medialens/internal/database"
)

// check-providers reports which analysis capabilities the current
// environment supports: configured vision providers, the media tools
// on PATH, and the analysis history in the database.
func main() {
	cfg := config.Load()

	fmt.Println("Checking analysis configuration")
	fmt.Println("===============================")

	awsConfigured := os.Getenv("AWS_ACCESS_KEY_ID") != "" || os.Getenv("AWS_PROFILE") != ""
	fmt.Println("Vision providers:")
	status("Bedrock "+cfg.NovaProModel, awsConfigured)
	status("Bedrock "+cfg.NovaLiteModel, awsConfigured)
	status("OpenAI "+cfg.OpenAIModel, cfg.OpenAIAPIKey != "")
	if !awsConfigured && cfg.OpenAIAPIKey == "" {
		fmt.Println("  WARNING: no vision provider configured; set AWS credentials or OPENAI_API_KEY")
	}

	fmt.Println("Media tools:")
	status("ffmpeg", onPath("ffmpeg"))
	status("ffprobe", onPath("ffprobe"))
	status("aubio (tempo detection)", onPath("aubio"))

	db, err := database.NewDB(database.Config{
		Type:       cfg.DBType,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		fmt.Printf("Database: unreachable (%v)\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewAnalysisRepository(db)
	total, err := repo.Count()
	if err != nil {
		fmt.Printf("Database: failed to count analyses (%v)\n", err)
		os.Exit(1)
	}
	fmt.Printf("Database: %s, %d analyses recorded\n", cfg.DBType, total)

	records, err := repo.ListRecent(5)
	if err == nil && len(records) > 0 {
		fmt.Println("Recent analyses:")
		for _, r := range records {
			fmt.Printf("  %s  %-10s %-9s %s\n",
				r.CreatedAt.Format("2006-01-02 15:04"), r.MediaType, r.Status, r.Filename)
		}
	}
}

func status(name string, ok bool) {
	mark := "missing"
	if ok {
		mark = "ok"
	}
	fmt.Printf("  %-40s %s\n", name, mark)
}

func onPath(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}
