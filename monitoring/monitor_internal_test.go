package monitoring

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/replacement/engine"
)

var _ = Describe("Monitor", func() {
	var m *Monitor

	BeforeEach(func() {
		m = NewMonitor()
	})

	It("should register components", func() {
		e := engine.MakeBuilder().Build("Engine")
		m.RegisterComponent(e)

		Expect(m.components).To(HaveLen(1))
	})

	It("should list registered components", func() {
		m.RegisterComponent(engine.MakeBuilder().Build("EngineA"))
		m.RegisterComponent(engine.MakeBuilder().Build("EngineB"))

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodGet, "/api/list_components", nil)

		m.listComponents(recorder, req)

		Expect(recorder.Body.String()).
			To(Equal(`["EngineA","EngineB"]`))
	})

	It("should return 404 for unknown components", func() {
		recorder := httptest.NewRecorder()

		m.findComponentOr404(recorder, "Nobody")

		Expect(recorder.Code).To(Equal(http.StatusNotFound))
	})

	It("should find registered components by name", func() {
		e := engine.MakeBuilder().Build("Engine")
		m.RegisterComponent(e)

		recorder := httptest.NewRecorder()
		found := m.findComponentOr404(recorder, "Engine")

		Expect(found).To(BeIdenticalTo(Component(e)))
	})

	It("should use a random port instead of a privileged one", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})
})
