// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// upload.go - the "upload" command.
//
// Command: upload FILE...
// Short:   Upload PDF or text documents to the backend
// Aliases: up
//
// Examples:
//   talkchat upload report.pdf
//   talkchat upload notes.txt report.pdf --json
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/talkchat/internal/commands"
)

// HandleUpload uploads each file named on the command line.
func HandleUpload(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	if cfg.UI.NoColor {
		ForceColorsEnabled(false)
	}
	sess, err := OpenSession(cfg, SessionOptions{Verbose: args.Verbose})
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return RunUpload(ctx, sess.Client, args.Files, os.Stdout, args.JSON)
}

// RunUpload uploads files one at a time. Every file is attempted; the
// returned error reports how many failed.
func RunUpload(ctx context.Context, up commands.Uploader, files []string, out io.Writer, jsonMode bool) error {
	results := make([]UploadData, 0, len(files))
	var firstErr error
	failed := 0

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		data := UploadData{File: file}
		path, err := expandPath(file)
		if err == nil {
			var info os.FileInfo
			if info, err = os.Stat(path); err == nil {
				res, uerr := up.UploadDocument(ctx, path)
				if uerr != nil {
					err = uerr
				} else {
					data.StatusCode = res.StatusCode
					data.Detail = res.Detail
					data.Payload = res.Payload
					if !jsonMode {
						fmt.Fprintf(out, "%s %s (%s): status %d %s\n",
							SuccessStyle.Render("[OK]"), file, formatBytes(info.Size()), res.StatusCode, res.Detail)
					}
				}
			}
		}

		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			data.Error = err.Error()
			if !jsonMode {
				fmt.Fprintf(out, "%s %s: %v\n", ErrorStyle.Render("[FAIL]"), file, err)
			}
		}
		results = append(results, data)
	}

	var failure error
	if failed > 0 {
		failure = &CommandError{
			Command: "upload",
			Action:  "send",
			Reason:  fmt.Sprintf("%d of %d file(s) failed", failed, len(files)),
			Err:     firstErr,
		}
	}

	if jsonMode {
		resp := NewJSONResponse("upload", results)
		if failure != nil {
			msg := failure.Error()
			resp.Success = false
			resp.Error = &msg
		}
		if err := resp.Print(out); err != nil {
			return err
		}
	}
	return Reported(failure)
}
