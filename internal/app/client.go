package app

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/CsabaConsulting/STTSFunctions/api"
	"github.com/CsabaConsulting/STTSFunctions/internal/tlsutil"
)

// callOptions call 子命令的参数
type callOptions struct {
	addr    string
	token   string
	timeout time.Duration

	// 识别
	in        string
	projectID string
	region    string

	// 合成
	text         string
	languageCode string
	out          string
}

// runCall 作为客户端调用正在运行的入口：识别时上传 gzip 音频，合成时写出音频文件
func (c *CLI) runCall(args []string) int {
	var o callOptions
	flags := flag.NewFlagSet("call", flag.ContinueOnError)
	flags.SetOutput(c.Stderr)
	flags.StringVar(&o.addr, "addr", "http://localhost:8080", "Server address")
	flags.StringVar(&o.token, "token", os.Getenv("TOKEN"), "Shared secret (default $TOKEN)")
	flags.DurationVar(&o.timeout, "timeout", 2*time.Minute, "Request timeout")
	flags.StringVar(&o.in, "in", "", "Audio file to transcribe")
	flags.StringVar(&o.projectID, "project-id", "", "GCP project override")
	flags.StringVar(&o.region, "region", "", "Recognizer region override")
	flags.StringVar(&o.text, "text", "", "Text or SSML to synthesize")
	flags.StringVar(&o.languageCode, "language-code", "", "Voice language override")
	flags.StringVar(&o.out, "out", "response.opus", "Output audio file")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	client := tlsutil.ProbeClient(o.timeout, nil)

	var err error
	switch c.Endpoint {
	case EndpointTranscribe:
		err = c.callTranscribe(client, o)
	case EndpointSynthesize:
		err = c.callSynthesize(client, o)
	default:
		err = fmt.Errorf("unknown endpoint %q", c.Endpoint)
	}
	if err != nil {
		fmt.Fprintf(c.Stderr, "Call failed: %v\n", err)
		return 1
	}
	return 0
}

func (c *CLI) callTranscribe(client *http.Client, o callOptions) error {
	if o.in == "" {
		return fmt.Errorf("--in is required")
	}
	audio, err := os.ReadFile(o.in)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	zw := gzip.NewWriter(&body)
	if _, err := zw.Write(audio); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	params := api.TranscribeParams{Token: o.token, ProjectID: o.projectID, Region: o.region}
	target := strings.TrimRight(o.addr, "/") + "/?" + params.Query().Encode()
	resp, err := client.Post(target, "application/octet-stream", &body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	var flat []string
	if err := json.NewDecoder(resp.Body).Decode(&flat); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	pairs, err := api.PairTranscripts(flat)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		// 拒绝、失败与静音在旧版协议下都是空数组
		fmt.Fprintln(c.Stderr, "Empty result")
		return nil
	}
	for _, p := range pairs {
		fmt.Fprintf(c.Stdout, "%s\t%s\n", p.LanguageCode, p.Transcript)
	}
	return nil
}

func (c *CLI) callSynthesize(client *http.Client, o callOptions) error {
	payload, err := json.Marshal(api.SynthesizeParams{
		Token:        o.token,
		Text:         o.text,
		LanguageCode: o.languageCode,
	})
	if err != nil {
		return err
	}

	resp, err := client.Post(strings.TrimRight(o.addr, "/")+"/", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(audio) == 0 {
		return fmt.Errorf("empty response, token rejected")
	}

	if err := os.WriteFile(o.out, audio, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout, "Wrote %d bytes to %s\n", len(audio), o.out)
	return nil
}
