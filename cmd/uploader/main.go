package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "server address")
	id := flag.Int("product", 1, "product id")
	name := flag.String("name", "", "product name, creates the product first when set")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal().Msg("usage: uploader [flags] <image>")
	}
	path := flag.Arg(0)

	httpClient := &http.Client{
		Transport: &http.Transport{
			DisableKeepAlives: true,
		},
	}

	if *name != "" {
		body := fmt.Sprintf(`{"id": %d, "name": %q}`, *id, *name)
		resp, err := httpClient.Post(*addr+"/api/v1/products", "application/json", strings.NewReader(body))
		if err != nil {
			log.Fatal().Err(err).Msg("Error creating product")
		}
		resp.Body.Close()
		log.Debug().Int("status", resp.StatusCode).Msg("Check product creation response")
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening file")
	}
	defer f.Close()

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/v1/products/%d/image/binary", *addr, *id), f)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Api-File-Name", filepath.Base(path))

	resp, err := httpClient.Do(req)
	if err != nil {
		log.Fatal().Err(err).Msg("Error sending request")
	}
	defer resp.Body.Close()
	d, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading response")
	}
	log.Info().Int("status", resp.StatusCode).Str("body", string(d)).Msg("Check upload response")
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
