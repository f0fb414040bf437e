package logging

import "testing"

func TestProgressSamplerEmitsOnBucketBoundaries(t *testing.T) {
	sampler := NewProgressSampler(10)

	if !sampler.ShouldLog(0, "copying") {
		t.Fatal("first event should log")
	}
	if sampler.ShouldLog(3, "copying") {
		t.Fatal("same bucket should be suppressed")
	}
	if !sampler.ShouldLog(12, "copying") {
		t.Fatal("next bucket should log")
	}
	if sampler.ShouldLog(14, "copying") {
		t.Fatal("same bucket should be suppressed")
	}
	if !sampler.ShouldLog(100, "copying") {
		t.Fatal("completion should log")
	}
}

func TestProgressSamplerEmitsOnStageChange(t *testing.T) {
	sampler := NewProgressSampler(10)

	if !sampler.ShouldLog(50, "walking") {
		t.Fatal("first stage should log")
	}
	if !sampler.ShouldLog(50, "copying") {
		t.Fatal("stage change should log even within bucket")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	sampler := NewProgressSampler(10)
	sampler.ShouldLog(99, "copying")
	sampler.Reset()
	if !sampler.ShouldLog(1, "copying") {
		t.Fatal("reset sampler should log again")
	}
}

func TestNilSamplerAlwaysLogs(t *testing.T) {
	var sampler *ProgressSampler
	if !sampler.ShouldLog(1, "x") {
		t.Fatal("nil sampler should always log")
	}
	sampler.Reset()
}
