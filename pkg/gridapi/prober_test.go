package gridapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sanops/asbuilt/internal/models"
	"github.com/sanops/asbuilt/pkg/gridapi"
)

var _ = Describe("Prober", func() {
	var (
		ctx    context.Context
		server *httptest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	newProber := func() *gridapi.Prober {
		return gridapi.NewProber(gridapi.Config{
			Host:        server.URL,
			Credentials: gridapi.Credentials{Username: "admin", Password: "secret"},
		})
	}

	Context("revision selection", func() {
		// Given a cluster that rejects v7 and v6 but accepts v5
		// When we probe
		// Then v5 is selected and never a revision that did not answer 200
		It("should select the highest revision that answers the probe", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/api/v5/clusters":
					w.WriteHeader(http.StatusOK)
				case "/api/v5/clusters/local":
					_, _ = w.Write([]byte(`{"sw_version":"5.3.0"}`))
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))

			cap := newProber().Probe(ctx)
			Expect(cap.Revision).To(Equal(models.Revision(5)))
		})

		// Given a cluster where every revision probe fails
		// When we probe
		// Then probing terminates and falls back to the oldest known revision
		It("should fall back to the oldest revision when every probe fails", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))

			cap := newProber().Probe(ctx)
			Expect(cap.Revision).To(Equal(models.OldestRevision))
			Expect(cap.RackPositions).To(BeFalse())
			Expect(cap.SerialTracking).To(BeFalse())
		})
	})

	Context("firmware discovery", func() {
		// Given a cluster whose rich self-description endpoint 404s
		// When we probe
		// Then the lean endpoint supplies the firmware version
		It("should fall back to the lean self-description endpoint", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/api/v7/clusters":
					w.WriteHeader(http.StatusOK)
				case "/api/v7/system":
					_, _ = w.Write([]byte(`{"software_version":"5.3.1"}`))
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))

			cap := newProber().Probe(ctx)
			Expect(cap.Revision).To(Equal(models.Revision(7)))
			Expect(cap.Firmware).To(Equal("5.3.1"))
			Expect(cap.RackPositions).To(BeTrue())
			Expect(cap.SerialTracking).To(BeTrue())
		})
	})

	Context("feature flags", func() {
		entries := []struct {
			revision models.Revision
			firmware string
			rack     bool
			serial   bool
		}{
			{7, "5.3.0", true, true},
			{7, "5.1.0", false, false}, // firmware below threshold gates both features
			{6, "5.2.0", true, true},
			{5, "5.2.0", false, true}, // revision below rack threshold
			{4, "5.3.0", false, false},
			{7, "garbage", false, false},
		}

		It("should enable a feature only when both revision and firmware meet their thresholds", func() {
			for _, e := range entries {
				cap := models.NewClusterCapability(e.revision, e.firmware)
				Expect(cap.RackPositions).To(Equal(e.rack),
					"rack positions for %s/%s", e.revision, e.firmware)
				Expect(cap.SerialTracking).To(Equal(e.serial),
					"serial tracking for %s/%s", e.revision, e.firmware)
			}
		})
	})
})
