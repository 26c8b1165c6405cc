package pipeline_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// TestPipelineScenarios runs the end-to-end scenarios against the in-memory
// AWS fakes driven through the real managers.
func TestPipelineScenarios(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pipeline Scenario Suite")
}
