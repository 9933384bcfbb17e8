package bill

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/ledgerlens/ledgerlens/internal/metrics"
)

var _ = Describe("Server", func() {
	var (
		store       *mockStore
		archive     *mockArchive
		extractor   *mockExtractor
		service     *Service
		auth        BasicAuth
		m           *metrics.Metrics
		server      *Server
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	BeforeEach(func() {
		store = newMockStore()
		archive = newMockArchive()
		extractor = newMockExtractor()
		service = NewService(store, extractor, archive)
		auth = BasicAuth{}
		m = metrics.New()
		server = NewServerWithMux(service, auth, m, http.NewServeMux())
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleUploadBill", func() {
		When("upload succeeds", func() {
			It("should return status Created", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				part, _ := writer.CreateFormFile("file", "pharmacy-bill.jpg")
				part.Write([]byte("fake image data"))
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/api/bills", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				resp.Body.Close()
			})

			It("should return the classified bill", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				part, _ := writer.CreateFormFile("file", "pharmacy-bill.jpg")
				part.Write([]byte("fake image data"))
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/api/bills", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var record BillRecord
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &record)).NotTo(HaveOccurred())
				Expect(record.ID).To(Equal(uint64(1)))
				Expect(record.Merchant).To(Equal("Apollo Pharmacy"))
				Expect(record.Category).To(Equal(CategoryMedical))
			})

			It("should set Content-Type to application/json", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				part, _ := writer.CreateFormFile("file", "pharmacy-bill.jpg")
				part.Write([]byte("fake image data"))
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/api/bills", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
			})

			It("should tag the response with a request id", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				part, _ := writer.CreateFormFile("file", "pharmacy-bill.jpg")
				part.Write([]byte("fake image data"))
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/api/bills", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Header.Get("X-Request-Id")).NotTo(BeEmpty())
				resp.Body.Close()
			})
		})

		When("the same file was already ingested", func() {
			BeforeEach(func() {
				store.fingerprints[Fingerprint([]byte("fake image data"))] = true
			})

			It("should return status Conflict", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				part, _ := writer.CreateFormFile("file", "pharmacy-bill.jpg")
				part.Write([]byte("fake image data"))
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/api/bills", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusConflict))
				resp.Body.Close()
			})

			It("should explain the rejection", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				part, _ := writer.CreateFormFile("file", "pharmacy-bill.jpg")
				part.Write([]byte("fake image data"))
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/api/bills", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("already been ingested"))
			})
		})

		When("the extraction provider fails", func() {
			BeforeEach(func() {
				extractor.extractErr = errors.New("provider down")
			})

			It("should return status Bad Gateway", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				part, _ := writer.CreateFormFile("file", "pharmacy-bill.jpg")
				part.Write([]byte("fake image data"))
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/api/bills", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
				resp.Body.Close()
			})

			It("should return the extraction error in JSON", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				part, _ := writer.CreateFormFile("file", "pharmacy-bill.jpg")
				part.Write([]byte("fake image data"))
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/api/bills", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var response map[string]string
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &response)).NotTo(HaveOccurred())
				Expect(response["error"]).To(ContainSubstring("extraction failed"))
			})
		})

		When("the provider response has no JSON", func() {
			BeforeEach(func() {
				extractor.response = "Sorry, I cannot process this image."
			})

			It("should return status Bad Gateway", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				part, _ := writer.CreateFormFile("file", "blurry.jpg")
				part.Write([]byte("fake image data"))
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/api/bills", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
				resp.Body.Close()
			})
		})

		When("no file is provided", func() {
			It("should return status Bad Request", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/api/bills", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})

			It("should return error message", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/api/bills", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("file"))
			})
		})

		When("invalid multipart form", func() {
			It("should return status Bad Request", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/bills", "multipart/form-data", bytes.NewBufferString("invalid"))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})
		})
	})

	Describe("handleListBills", func() {
		When("bills exist", func() {
			BeforeEach(func() {
				store.bills[1] = &BillRecord{ID: 1, Merchant: "Big Basket", Category: CategoryGroceries}
				store.bills[2] = &BillRecord{ID: 2, Merchant: "Apollo Pharmacy", Category: CategoryMedical}
			})

			It("should return status OK", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})

			It("should return all bills", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var bills []*BillRecord
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &bills)).NotTo(HaveOccurred())
				Expect(bills).To(HaveLen(2))
			})

			It("should filter by category", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills?category=Groceries")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var bills []*BillRecord
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &bills)).NotTo(HaveOccurred())
				Expect(bills).To(HaveLen(1))
				Expect(bills[0].Category).To(Equal(CategoryGroceries))
			})

			It("should set Content-Type to application/json", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
			})
		})

		When("no bills exist", func() {
			It("should return an empty array", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var bills []*BillRecord
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &bills)).NotTo(HaveOccurred())
				Expect(bills).To(BeEmpty())
			})
		})

		When("the store fails", func() {
			BeforeEach(func() {
				store.listErr = errors.New("db down")
			})

			It("should return status Internal Server Error", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				resp.Body.Close()
			})
		})
	})

	Describe("handleGetBill", func() {
		When("the bill exists", func() {
			BeforeEach(func() {
				store.bills[7] = &BillRecord{ID: 7, Merchant: "Apollo Pharmacy"}
			})

			It("should return the correct bill", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills/7")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var record BillRecord
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &record)).NotTo(HaveOccurred())
				Expect(record.ID).To(Equal(uint64(7)))
				Expect(record.Merchant).To(Equal("Apollo Pharmacy"))
			})
		})

		When("the bill does not exist", func() {
			It("should return status Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills/99")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				resp.Body.Close()
			})

			It("should return error message", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills/99")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("Bill not found"))
			})
		})

		When("the id is not numeric", func() {
			It("should return status Bad Request", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills/abc")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})
		})
	})

	Describe("handleGetBillFile", func() {
		When("the bill and its file exist", func() {
			BeforeEach(func() {
				store.bills[7] = &BillRecord{
					ID:          7,
					Filename:    "abc123_bill.jpg",
					ContentType: "image/jpeg",
				}
				archive.files["abc123_bill.jpg"] = []byte("file content")
			})

			It("should return the file content", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills/7/file")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(Equal("file content"))
			})

			It("should set the stored Content-Type", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills/7/file")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.Header.Get("Content-Type")).To(Equal("image/jpeg"))
			})
		})

		When("the bill does not exist", func() {
			It("should return status Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills/99/file")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				resp.Body.Close()
			})
		})

		When("the file is missing from the archive", func() {
			BeforeEach(func() {
				store.bills[7] = &BillRecord{ID: 7, Filename: "gone.jpg", ContentType: "image/jpeg"}
			})

			It("should return status Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills/7/file")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				resp.Body.Close()
			})
		})
	})

	Describe("handleReviewBill", func() {
		When("the bill reconciles", func() {
			BeforeEach(func() {
				store.bills[1] = &BillRecord{
					ID:    1,
					Total: 99,
					Extracted: json.RawMessage(`{
						"items": [{"name": "Rice 5kg", "price": 60}, {"name": "Dal 1kg", "price": 30}]
					}`),
				}
			})

			It("should return status OK", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/bills/1/review", "application/json", nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})

			It("should return the full audit trail", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/bills/1/review", "application/json", nil)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var result Reconciliation
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &result)).NotTo(HaveOccurred())
				Expect(result.Verdict).To(Equal(VerdictPassed))
				Expect(result.TaxInferred).To(BeTrue())
				Expect(result.ReconciledTotal).To(Equal(99.0))
			})
		})

		When("the bill does not exist", func() {
			It("should return status Not Found", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/bills/99/review", "application/json", nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				resp.Body.Close()
			})
		})

		When("the id is not numeric", func() {
			It("should return status Bad Request", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/bills/abc/review", "application/json", nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})
		})
	})

	Describe("handleListValidations", func() {
		When("verdicts are cached", func() {
			BeforeEach(func() {
				store.validations[1] = &ValidationRecord{BillID: 1, Status: VerdictPassed}
			})

			It("should return them", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/validations")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var validations []*ValidationRecord
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &validations)).NotTo(HaveOccurred())
				Expect(validations).To(HaveLen(1))
				Expect(validations[0].Status).To(Equal(VerdictPassed))
			})
		})

		When("no verdicts are cached", func() {
			It("should return an empty array", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/validations")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("[]"))
			})
		})
	})

	Describe("handleSummary", func() {
		BeforeEach(func() {
			store.bills[1] = &BillRecord{ID: 1, Category: CategoryGroceries, Date: "2024-03-01", Total: 500}
			store.bills[2] = &BillRecord{ID: 2, Category: CategoryGroceries, Date: "2024-03-02", Total: 250}
		})

		It("should return the aggregated spend", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/analytics/summary")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			var summary []CategorySpend
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(body, &summary)).NotTo(HaveOccurred())
			Expect(summary).To(HaveLen(1))
			Expect(summary[0].Total).To(Equal(750.0))
			Expect(summary[0].Bills).To(Equal(2))
		})
	})

	Describe("handleCompleteness", func() {
		BeforeEach(func() {
			store.bills[1] = &BillRecord{ID: 1, Merchant: "Big Basket", Date: "2024-03-01", Total: 500}
			store.bills[2] = &BillRecord{ID: 2, Merchant: "Unknown"}
		})

		It("should return one entry per bill", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/analytics/completeness")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			var report []FieldStatus
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(body, &report)).NotTo(HaveOccurred())
			Expect(report).To(HaveLen(2))
		})
	})

	Describe("handleClearBills", func() {
		BeforeEach(func() {
			store.bills[1] = &BillRecord{ID: 1, Fingerprint: "abc"}
			store.fingerprints["abc"] = true
			archive.files["abc_bill.jpg"] = []byte("data")
		})

		It("should return status No Content", func() {
			req, err := http.NewRequest("DELETE", ghttpServer.URL()+"/api/bills", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			resp.Body.Close()
		})

		It("should wipe the store and archive", func() {
			req, err := http.NewRequest("DELETE", ghttpServer.URL()+"/api/bills", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(store.bills).To(BeEmpty())
			Expect(archive.files).To(BeEmpty())
		})
	})

	Describe("authenticate", func() {
		var result bool

		When("no auth is configured", func() {
			It("should return true", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/bills", nil)
				Expect(err).NotTo(HaveOccurred())
				result = server.authenticate(req)
				Expect(result).To(BeTrue())
			})
		})

		When("valid credentials are provided", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "accounts", Password: "secret"}
				server = NewServerWithMux(service, auth, m, http.NewServeMux())
				setupServer()
			})

			It("should return true", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/bills", nil)
				Expect(err).NotTo(HaveOccurred())
				credentials := base64.StdEncoding.EncodeToString([]byte("accounts:secret"))
				req.Header.Set("Authorization", "Basic "+credentials)
				result = server.authenticate(req)
				Expect(result).To(BeTrue())
			})
		})

		When("invalid credentials are provided", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "accounts", Password: "secret"}
				server = NewServerWithMux(service, auth, m, http.NewServeMux())
				setupServer()
			})

			It("should return false", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/bills", nil)
				Expect(err).NotTo(HaveOccurred())
				credentials := base64.StdEncoding.EncodeToString([]byte("accounts:wrong"))
				req.Header.Set("Authorization", "Basic "+credentials)
				result = server.authenticate(req)
				Expect(result).To(BeFalse())
			})
		})

		When("no authorization header is provided", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "accounts", Password: "secret"}
				server = NewServerWithMux(service, auth, m, http.NewServeMux())
				setupServer()
			})

			It("should return false", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/bills", nil)
				Expect(err).NotTo(HaveOccurred())
				result = server.authenticate(req)
				Expect(result).To(BeFalse())
			})
		})
	})

	Describe("requireAuth", func() {
		When("credentials are configured", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "accounts", Password: "secret"}
				server = NewServerWithMux(service, auth, m, http.NewServeMux())
				setupServer()
			})

			It("should reject an unauthenticated request", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				resp.Body.Close()
			})

			It("should set WWW-Authenticate header", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/bills")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.Header.Get("WWW-Authenticate")).NotTo(BeEmpty())
			})

			It("should accept an authenticated request", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/bills", nil)
				Expect(err).NotTo(HaveOccurred())
				req.SetBasicAuth("accounts", "secret")
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})

			It("should leave the metrics endpoint open", func() {
				resp, err := http.Get(ghttpServer.URL() + "/metrics")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})
		})
	})

	Describe("metrics endpoint", func() {
		It("should expose the instrument registry", func() {
			resp, err := http.Get(ghttpServer.URL() + "/metrics")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("ledgerlens_http_in_flight_requests"))
		})
	})

	Describe("CORS", func() {
		It("should answer preflight requests with No Content", func() {
			req, err := http.NewRequest("OPTIONS", ghttpServer.URL()+"/api/bills", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			resp.Body.Close()
		})
	})

	Describe("request ids", func() {
		It("should honor a client-sent request id", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/bills", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("X-Request-Id", "trace-42")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Header.Get("X-Request-Id")).To(Equal("trace-42"))
			resp.Body.Close()
		})
	})
})
