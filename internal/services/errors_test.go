package services_test

import (
	"errors"
	"testing"

	"favsync/internal/services"
)

func TestWrapTagsMarkerAndPreservesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 1")
	err := services.Wrap(services.ErrExternalTool, "transcode", "ffmpeg", "conversion failed", cause)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	want := "external tool error: transcode: ffmpeg: conversion failed: exit status 1"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	t.Parallel()

	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	if !services.IsFatal(services.Wrap(services.ErrConfiguration, "config", "load", "missing api key", nil)) {
		t.Fatal("configuration errors are fatal")
	}
	if !services.IsFatal(services.Wrap(services.ErrUnavailable, "catalog", "favorites", "status 500", nil)) {
		t.Fatal("catalog availability errors are fatal")
	}
	if services.IsFatal(services.Wrap(services.ErrExternalTool, "transcode", "ffmpeg", "bad track", nil)) {
		t.Fatal("tool failures are per-item, not fatal")
	}
}
