package support

import (
	"fmt"
	"os"

	"github.com/MeKo-Tech/imgmerge/internal/pdf"
	"github.com/cucumber/godog"
)

func (testCtx *TestContext) thePDFShouldHavePages(name string, pages int) error {
	got, err := pdf.PageCountFile(testCtx.Path(name), "")
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", name, err)
	}
	if got != pages {
		return fmt.Errorf("%s has %d pages, want %d", name, got, pages)
	}
	return nil
}

func (testCtx *TestContext) thePDFShouldOpenWithPassword(name string, pages int, password string) error {
	got, err := pdf.PageCountFile(testCtx.Path(name), password)
	if err != nil {
		return fmt.Errorf("cannot read %s with password: %w", name, err)
	}
	if got != pages {
		return fmt.Errorf("%s has %d pages, want %d", name, got, pages)
	}
	return nil
}

func (testCtx *TestContext) thePDFShouldBeEncrypted(name string) error {
	f, err := os.Open(testCtx.Path(name))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	encrypted, err := pdf.IsEncrypted(f)
	if err != nil {
		return fmt.Errorf("cannot inspect %s: %w", name, err)
	}
	if !encrypted {
		return fmt.Errorf("%s is not encrypted", name)
	}
	return nil
}

// RegisterPDFSteps registers PDF assertion steps.
func (testCtx *TestContext) RegisterPDFSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the PDF "([^"]*)" should have (\d+) pages?$`, testCtx.thePDFShouldHavePages)
	sc.Step(`^the PDF "([^"]*)" should have (\d+) pages? when opened with password "([^"]*)"$`,
		testCtx.thePDFShouldOpenWithPassword)
	sc.Step(`^the PDF "([^"]*)" should be encrypted$`, testCtx.thePDFShouldBeEncrypted)
}
