package wbc_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestWBC(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "WBC Suite")
}
