/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Session-level failures returned to the originating caller only.
// They never produce a group broadcast and never close the connection.
var (
	errSessionNotFound     = errors.New("game not found")
	errNotHost             = errors.New("only the host can do that")
	errParticipantNotFound = errors.New("player not found in this game")
	errAlreadyStarted      = errors.New("game already started")
)

// errorCode maps a session error to the short code carried in acks
// and API responses.
func errorCode(err error) string {
	switch {
	case errors.Is(err, errSessionNotFound):
		return "session_not_found"
	case errors.Is(err, errNotHost):
		return "not_host"
	case errors.Is(err, errParticipantNotFound):
		return "participant_not_found"
	case errors.Is(err, errAlreadyStarted):
		return "already_started"
	default:
		return "internal"
	}
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
