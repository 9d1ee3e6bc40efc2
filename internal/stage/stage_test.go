package stage

import (
	"context"
	"testing"

	"reelsmith/internal/job"
)

type plainHandler struct{}

func (plainHandler) Prepare(context.Context, *job.Job) error { return nil }
func (plainHandler) Execute(context.Context, *job.Job) error { return nil }
func (plainHandler) HealthCheck(context.Context) Health      { return Healthy("plain") }

type softHandler struct{ plainHandler }

func (softHandler) SoftFail() bool { return true }

func TestFatal(t *testing.T) {
	if !Fatal(plainHandler{}) {
		t.Fatal("handlers are fatal by default")
	}
	if Fatal(softHandler{}) {
		t.Fatal("soft-fail handler reported fatal")
	}
}

func TestHealthConstructors(t *testing.T) {
	if h := Healthy("speech"); !h.Ready || h.Name != "speech" {
		t.Fatalf("unexpected %+v", h)
	}
	if h := Unhealthy("compose", "ffmpeg missing"); h.Ready || h.Detail != "ffmpeg missing" {
		t.Fatalf("unexpected %+v", h)
	}
}
