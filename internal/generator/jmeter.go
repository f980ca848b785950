package generator

import (
	"fmt"
	"net/url"
	"strings"

	"sessionrecorder/backend/internal/models"
)

const jmeterHeader = `<?xml version="1.0" encoding="UTF-8"?>
<jmeterTestPlan version="1.2">
  <hashTree>
    <TestPlan guiclass="TestPlanGui" testclass="TestPlan" testname="Recorded Test Plan">
      <elementProp name="TestPlan.arguments" elementType="Arguments" guiclass="ArgumentsPanel" testclass="Arguments" testname="User Defined Variables"/>
      <stringProp name="TestPlan.user_define_classpath"></stringProp>
      <boolProp name="TestPlan.serialize_threadgroups">false</boolProp>
      <boolProp name="TestPlan.functional_mode">false</boolProp>
    </TestPlan>
    <hashTree>
      <ThreadGroup guiclass="ThreadGroupGui" testclass="ThreadGroup" testname="Thread Group">
        <stringProp name="ThreadGroup.on_sample_error">continue</stringProp>
        <elementProp name="ThreadGroup.main_controller" elementType="LoopController" guiclass="LoopControlPanel" testclass="LoopController" testname="Loop Controller">
          <boolProp name="LoopController.continue_forever">false</boolProp>
          <stringProp name="LoopController.loops">1</stringProp>
        </elementProp>
        <stringProp name="ThreadGroup.num_threads">1</stringProp>
        <stringProp name="ThreadGroup.ramp_time">1</stringProp>
      </ThreadGroup>
      <hashTree>
`

const jmeterFooter = `      </hashTree>
    </hashTree>
  </hashTree>
</jmeterTestPlan>`

// JMeterGenerator writes a single-thread JMeter plan with one GET sampler
// per navigation or link-bearing click. Input and change actions have no
// HTTP equivalent and are counted as skipped.
type JMeterGenerator struct{}

func NewJMeterGenerator() *JMeterGenerator { return &JMeterGenerator{} }

func (g *JMeterGenerator) Format() Format      { return FormatJMeter }
func (g *JMeterGenerator) Extension() string   { return ".jmx" }
func (g *JMeterGenerator) ContentType() string { return "application/xml" }

func (g *JMeterGenerator) Generate(actions []models.Action) Artifact {
	var b strings.Builder
	b.WriteString(jmeterHeader)

	emitted := 0
	for i, action := range actions {
		if action.Type != models.ActionNavigate && !(action.Type == models.ActionClick && action.URL != "") {
			continue
		}
		target, ok := samplerTarget(action.URL)
		if !ok {
			continue
		}
		writeSampler(&b, i+1, target)
		emitted++
	}

	b.WriteString(jmeterFooter)
	return Artifact{
		Format:      FormatJMeter,
		ContentType: g.ContentType(),
		Content:     b.String(),
		Emitted:     emitted,
		Skipped:     len(actions) - emitted,
	}
}

type sampler struct {
	domain, port, protocol, path string
}

// samplerTarget splits raw into sampler fields. URLs without a scheme or
// host cannot be requested and are rejected.
func samplerTarget(raw string) (sampler, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return sampler{}, false
	}

	port := u.Port()
	if port == "" {
		port = "80"
		if strings.EqualFold(u.Scheme, "https") {
			port = "443"
		}
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	domain := u.Hostname()
	if strings.Contains(domain, ":") {
		domain = "[" + domain + "]"
	}
	return sampler{
		domain:   domain,
		port:     port,
		protocol: strings.ToLower(u.Scheme),
		path:     path,
	}, true
}

func writeSampler(b *strings.Builder, n int, s sampler) {
	fmt.Fprintf(b, "        <HTTPSamplerProxy guiclass=\"HttpTestSampleGui\" testclass=\"HTTPSamplerProxy\" testname=\"Request %d\">\n", n)
	b.WriteString("          <elementProp name=\"HTTPsampler.Arguments\" elementType=\"Arguments\" guiclass=\"HTTPArgumentsPanel\" testclass=\"Arguments\" testname=\"User Defined Variables\"/>\n")
	fmt.Fprintf(b, "          <stringProp name=\"HTTPSampler.domain\">%s</stringProp>\n", xmlText(s.domain))
	fmt.Fprintf(b, "          <stringProp name=\"HTTPSampler.port\">%s</stringProp>\n", xmlText(s.port))
	fmt.Fprintf(b, "          <stringProp name=\"HTTPSampler.protocol\">%s</stringProp>\n", xmlText(s.protocol))
	fmt.Fprintf(b, "          <stringProp name=\"HTTPSampler.path\">%s</stringProp>\n", xmlText(s.path))
	b.WriteString("          <stringProp name=\"HTTPSampler.method\">GET</stringProp>\n")
	b.WriteString("        </HTTPSamplerProxy>\n")
	b.WriteString("        <hashTree/>\n")
}
