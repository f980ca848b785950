package generator

import (
	"fmt"
	"strings"

	"sessionrecorder/backend/internal/models"
	"sessionrecorder/backend/internal/selector"
)

const seleniumHeader = `from selenium import webdriver
from selenium.webdriver.common.by import By
from selenium.webdriver.support.ui import WebDriverWait
from selenium.webdriver.support import expected_conditions as EC
from selenium.webdriver.chrome.service import Service
from selenium.webdriver.chrome.options import Options
import time

# Setup Chrome options
chrome_options = Options()
chrome_options.add_argument("--no-sandbox")
chrome_options.add_argument("--disable-dev-shm-usage")

# Initialize driver
driver = webdriver.Chrome(options=chrome_options)
driver.maximize_window()

try:
`

const seleniumFooter = `
except Exception as e:
    print(f"Script error: {e}")
finally:
    driver.quit()
    print("Test completed")`

// SeleniumGenerator writes a Python script that replays the log with
// Selenium WebDriver. Steps are numbered by their index in the log.
type SeleniumGenerator struct {
	cfg Config
}

func NewSeleniumGenerator(cfg Config) *SeleniumGenerator {
	return &SeleniumGenerator{cfg: cfg.withDefaults()}
}

func (g *SeleniumGenerator) Format() Format      { return FormatSelenium }
func (g *SeleniumGenerator) Extension() string   { return ".py" }
func (g *SeleniumGenerator) ContentType() string { return "text/x-python" }

func (g *SeleniumGenerator) Generate(actions []models.Action) Artifact {
	var b strings.Builder
	b.WriteString(seleniumHeader)
	emitted := g.writeSteps(&b, actions)
	if emitted == 0 {
		// the try block needs a body
		b.WriteString("    pass\n")
	}
	b.WriteString(seleniumFooter)

	return Artifact{
		Format:      FormatSelenium,
		ContentType: g.ContentType(),
		Content:     b.String(),
		Emitted:     emitted,
		Skipped:     len(actions) - emitted,
	}
}

func (g *SeleniumGenerator) writeSteps(b *strings.Builder, actions []models.Action) int {
	emitted := 0
	for i, action := range actions {
		switch action.Type {
		case models.ActionNavigate:
			fmt.Fprintf(b, "    driver.get(\"%s\")\n", pyString(action.URL))
			fmt.Fprintf(b, "    time.sleep(%d)\n", g.cfg.NavigateDelay)
		case models.ActionClick:
			g.writeClick(b, i, action.Selector)
		case models.ActionInput:
			g.writeInput(b, i, action.Selector, action.Value)
		default:
			// change events carry no replay step
			continue
		}
		emitted++
	}
	return emitted
}

func (g *SeleniumGenerator) writeClick(b *strings.Builder, i int, sel string) {
	fmt.Fprintf(b, "    try:\n")
	fmt.Fprintf(b, "        element_%d = WebDriverWait(driver, %d).until(\n", i, g.cfg.WaitTimeout)
	fmt.Fprintf(b, "            EC.element_to_be_clickable((%s, \"%s\"))\n", locatorStrategy(sel), pyString(sel))
	fmt.Fprintf(b, "        )\n")
	fmt.Fprintf(b, "        element_%d.click()\n", i)
	fmt.Fprintf(b, "        time.sleep(%d)\n", g.cfg.StepDelay)
	fmt.Fprintf(b, "    except Exception as e:\n")
	fmt.Fprintf(b, "        print(f\"Could not click element %d: {e}\")\n", i)
}

func (g *SeleniumGenerator) writeInput(b *strings.Builder, i int, sel, value string) {
	fmt.Fprintf(b, "    try:\n")
	fmt.Fprintf(b, "        input_%d = WebDriverWait(driver, %d).until(\n", i, g.cfg.WaitTimeout)
	fmt.Fprintf(b, "            EC.presence_of_element_located((%s, \"%s\"))\n", locatorStrategy(sel), pyString(sel))
	fmt.Fprintf(b, "        )\n")
	fmt.Fprintf(b, "        input_%d.clear()\n", i)
	fmt.Fprintf(b, "        input_%d.send_keys(\"%s\")\n", i, pyString(value))
	fmt.Fprintf(b, "        time.sleep(%d)\n", g.cfg.StepDelay)
	fmt.Fprintf(b, "    except Exception as e:\n")
	fmt.Fprintf(b, "        print(f\"Could not input to element %d: {e}\")\n", i)
}

func locatorStrategy(sel string) string {
	if selector.IsPath(sel) {
		return "By.XPATH"
	}
	return "By.CSS_SELECTOR"
}
