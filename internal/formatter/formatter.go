// package formatter exports workouts to CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Dgouveia1/mulheres-fitness-app/internal/models"
)

// FormatRest renders a rest period as "45s" or "1m30s".
func FormatRest(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", max(seconds, 0))
	}
	if seconds%60 == 0 {
		return fmt.Sprintf("%dm", seconds/60)
	}
	return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
}

// FormatLoad renders a suggested load, or "-" when there is none.
func FormatLoad(kg *float64) string {
	if kg == nil {
		return "-"
	}
	return strconv.FormatFloat(*kg, 'f', -1, 64) + " kg"
}

func exerciseName(item models.WorkoutItem) string {
	if item.Exercise == nil || item.Exercise.Name == "" {
		return "Exercise"
	}
	return item.Exercise.Name
}

func muscleGroup(item models.WorkoutItem) string {
	if item.Exercise == nil || item.Exercise.MuscleGroup == "" {
		return "General"
	}
	return item.Exercise.MuscleGroup
}

// ExportToCSV converts a workout to CSV with columns: Order, Exercise, Muscle Group, Sets, Reps, Rest, Load
func ExportToCSV(w *models.Workout) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Order", "Exercise", "Muscle Group", "Sets", "Reps", "Rest (s)", "Load (kg)"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, item := range w.Items {
		load := ""
		if item.SuggestedLoadKg != nil {
			load = strconv.FormatFloat(*item.SuggestedLoadKg, 'f', -1, 64)
		}
		record := []string{
			strconv.Itoa(i + 1),
			exerciseName(item),
			muscleGroup(item),
			strconv.Itoa(item.Sets),
			string(item.Reps),
			strconv.Itoa(item.RestSeconds),
			load,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a workout to Markdown with an optional cover image
func ExportToMarkdown(w *models.Workout, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", w.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	if w.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", w.Description)
	}

	fmt.Fprintf(&buf, "**Exercises**: %d\n", len(w.Items))
	fmt.Fprintf(&buf, "**Total sets**: %d\n\n", w.TotalSets())

	buf.WriteString("## Exercises\n\n")
	for i, item := range w.Items {
		fmt.Fprintf(&buf, "%d. %s (%s): %d x %s, rest %s, load %s\n",
			i+1, exerciseName(item), muscleGroup(item), item.Sets, item.Reps, FormatRest(item.RestSeconds), FormatLoad(item.SuggestedLoadKg))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a workout to plain text
func ExportToText(w *models.Workout) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Workout: %s\n", w.Name)
	if w.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", w.Description)
	}
	fmt.Fprintf(&buf, "Exercises: %d\n\n", len(w.Items))

	for i, item := range w.Items {
		fmt.Fprintf(&buf, "%d. %s - %d x %s\n", i+1, exerciseName(item), item.Sets, item.Reps)
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

type metadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	AssignedTo  string    `json:"assigned_to"`
	CreatedAt   time.Time `json:"created_at"`
	Exercises   int       `json:"exercises"`
	TotalSets   int       `json:"total_sets"`
}

// ToMetadataJSON generates indented JSON describing the workout without its items
func ToMetadataJSON(w *models.Workout) ([]byte, error) {
	return json.MarshalIndent(metadata{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		AssignedTo:  w.AssignedTo,
		CreatedAt:   w.CreatedAt,
		Exercises:   len(w.Items),
		TotalSets:   w.TotalSets(),
	}, "", "  ")
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ItemsFile    string
	MetadataFile string
}

// WriteCSVExport writes {base}_items.csv and {base}_metadata.json, with the workout ID as the default base.
func WriteCSVExport(w *models.Workout, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = w.ID
	}

	csvData, err := ExportToCSV(w)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	itemsFile := baseFilepath + "_items.csv"
	if err := os.WriteFile(itemsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(w)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{ItemsFile: itemsFile, MetadataFile: metadataFile}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes {dir}/README.md, defaulting dir to the workout ID. When imageURL
// is set the image is downloaded to {dir}/cover.jpg; a failed download is reported on warn
// and the export continues without it.
func WriteMarkdownExport(w *models.Workout, outputDir, imageURL string, warn io.Writer) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = w.ID
	}
	if warn == nil {
		warn = io.Discard
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(warn, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(warn, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(w, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteTextExport writes the plain text export, defaulting to {workout.ID}_workout.txt.
func WriteTextExport(w *models.Workout, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_workout.txt", w.ID)
	}

	textData, err := ExportToText(w)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// CoverURL returns the first exercise image in the workout, if any.
func CoverURL(w *models.Workout) string {
	for _, item := range w.Items {
		if item.Exercise != nil && item.Exercise.ImageURL != "" {
			return item.Exercise.ImageURL
		}
	}
	return ""
}
