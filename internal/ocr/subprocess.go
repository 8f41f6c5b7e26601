package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"clinicrawl/internal/logging"
)

const doctorPromptTemplate = `Read the clinic staff page screenshot at %s.
List every doctor (의사/원장) you can see. Respond with ONLY a JSON array, no prose:
[{"name":"한글이름","name_english":"","role":"대표원장","education":[],"career":[],"credentials":[],"photo_url":""}]
Use an empty array [] if no doctors are visible.`

const navPromptTemplate = `Look at the clinic homepage screenshot at %s.
Respond with ONLY strict JSON, no prose:
{"doctors":[{"name":"한글이름","role":""}],"suggested_paths":["/path"]}
doctors: any doctor names visible right on this page.
suggested_paths: up to 3 URL paths on this site most likely to show the doctor roster (의료진/원장 소개).`

// Tool shells out to an LLM CLI that can read local images. One invocation
// per screenshot; stdout carries the JSON, usually wrapped in prose or
// code fences.
type Tool struct {
	bin     string
	timeout time.Duration
}

// NewTool builds a subprocess client. bin is the executable name, e.g.
// "gemini".
func NewTool(bin string, timeout time.Duration) *Tool {
	return &Tool{bin: bin, timeout: timeout}
}

func (t *Tool) run(ctx context.Context, prompt, imagePath string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.bin,
		"-p", prompt,
		"-y",
		"--include-directories", filepath.Dir(imagePath),
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	logging.Debugf("ocr tool %s finished in %s (stdout %dB)", t.bin, time.Since(start).Round(time.Millisecond), stdout.Len())
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("ocr tool timed out after %s", t.timeout)
		}
		return nil, fmt.Errorf("ocr tool failed: %w (stderr: %.200s)", err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// ExtractDoctors runs one Tier B/C OCR pass over a screenshot.
func (t *Tool) ExtractDoctors(ctx context.Context, imagePath string) ([]DoctorRecord, error) {
	out, err := t.run(ctx, fmt.Sprintf(doctorPromptTemplate, imagePath), imagePath)
	if err != nil {
		return nil, err
	}

	payload := ExtractJSON(out)
	if payload == nil {
		return nil, fmt.Errorf("no JSON in ocr output (%.100s)", string(out))
	}
	var records []DoctorRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("malformed ocr JSON: %w", err)
	}
	return records, nil
}

// Navigate runs the AI navigation fallback over the main-page screenshot.
func (t *Tool) Navigate(ctx context.Context, imagePath string) (*NavResult, error) {
	out, err := t.run(ctx, fmt.Sprintf(navPromptTemplate, imagePath), imagePath)
	if err != nil {
		return nil, err
	}

	payload := ExtractJSON(out)
	if payload == nil {
		return nil, fmt.Errorf("no JSON in navigator output (%.100s)", string(out))
	}
	var result NavResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("malformed navigator JSON: %w", err)
	}
	return &result, nil
}
