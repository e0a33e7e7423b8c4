package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

// mock-vendor serves AWS, Azure and GCP shaped payloads on one listener so
// the engine can run end to end without real cloud accounts. Point the
// adapter base URLs at http://localhost:8381/{aws,azure,gcp}.

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	registerAWS(mux)
	registerAzure(mux)
	registerGCP(mux)

	logger := log.New(log.Writer(), "mock-vendor ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":8381",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :8381")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func registerAWS(mux *http.ServeMux) {
	mux.HandleFunc("/aws/sts/caller-identity", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Access-Key-Id") == "" {
			http.Error(w, `{"message":"invalid credentials"}`, http.StatusForbidden)
			return
		}
		writeJSON(w, map[string]string{
			"Account": "123456789012",
			"Arn":     "arn:aws:iam::123456789012:user/copilot",
		})
	})

	mux.HandleFunc("/aws/ce/get-cost-and-usage", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"ResultsByTime": []map[string]any{{
				"TimePeriod": map[string]string{"Start": time.Now().AddDate(0, 0, -1).Format("2006-01-02")},
				"Groups": []map[string]any{
					{"Keys": []string{"AmazonEC2"}, "Metrics": map[string]any{"UnblendedCost": map[string]string{"Amount": "42.17", "Unit": "USD"}}},
					{"Keys": []string{"AmazonS3"}, "Metrics": map[string]any{"UnblendedCost": map[string]string{"Amount": "3.05", "Unit": "USD"}}},
				},
			}},
		})
	})

	mux.HandleFunc("/aws/ec2/describe-instances", func(w http.ResponseWriter, r *http.Request) {
		region := r.URL.Query().Get("region")
		if region == "" {
			region = "us-east-1"
		}
		writeJSON(w, map[string]any{
			"Reservations": []map[string]any{{
				"Instances": []map[string]any{{
					"InstanceId":   "i-0abc" + region,
					"InstanceType": "t3.medium",
					"State":        map[string]string{"Name": "running"},
					"Placement":    map[string]string{"AvailabilityZone": region + "a"},
					"Tags":         []map[string]string{{"Key": "Name", "Value": "web-" + region}, {"Key": "env", "Value": "dev"}},
					"LaunchTime":   time.Now().AddDate(0, -1, 0).Format(time.RFC3339),
				}},
			}},
		})
	})

	mux.HandleFunc("/aws/securityhub/findings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"Findings": []map[string]any{{
				"Id":          "finding-aws-1",
				"Title":       "S3 bucket allows public read",
				"Description": "Block public access on the bucket.",
				"Severity":    map[string]string{"Label": "HIGH"},
				"Resources":   []map[string]string{{"Id": "arn:aws:s3:::public-bucket"}},
				"Region":      "us-east-1",
				"CreatedAt":   time.Now().Add(-6 * time.Hour).Format(time.RFC3339),
			}},
		})
	})
}

func registerAzure(mux *http.ServeMux) {
	mux.HandleFunc("/azure/subscriptions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Client-Secret") == "" {
			http.Error(w, `{"error":{"code":"AuthenticationFailed"}}`, http.StatusUnauthorized)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/consumption/usageDetails"):
			writeJSON(w, map[string]any{
				"value": []map[string]any{{
					"properties": map[string]any{
						"usageStart":      time.Now().AddDate(0, 0, -1).Format(time.RFC3339),
						"consumedService": "Microsoft.Compute",
						"pretaxCost":      18.4,
						"currency":        "EUR",
						"instanceId":      "/subscriptions/sub-dev/resourceGroups/dev-rg/providers/Microsoft.Compute/virtualMachines/vm-1",
						"meterCategory":   "Virtual Machines",
					},
				}},
			})
		case strings.HasSuffix(r.URL.Path, "/resources"):
			writeJSON(w, map[string]any{
				"value": []map[string]any{{
					"id":          "/subscriptions/sub-dev/resourceGroups/dev-rg/providers/Microsoft.Compute/virtualMachines/vm-1",
					"name":        "vm-1",
					"type":        "Microsoft.Compute/virtualMachines",
					"location":    "westeurope",
					"tags":        map[string]string{"env": "dev"},
					"properties":  map[string]string{"powerState": "PowerState/running"},
					"createdTime": time.Now().AddDate(0, -2, 0).Format(time.RFC3339),
					"changedTime": time.Now().AddDate(0, 0, -3).Format(time.RFC3339),
				}},
			})
		case strings.HasSuffix(r.URL.Path, "/resources/by-id"):
			writeJSON(w, map[string]any{
				"id":         r.URL.Query().Get("id"),
				"name":       "vm-1",
				"type":       "Microsoft.Compute/virtualMachines",
				"location":   "westeurope",
				"tags":       map[string]string{"env": "dev"},
				"properties": map[string]string{"powerState": "PowerState/running"},
			})
		case strings.HasSuffix(r.URL.Path, "/security/assessments"):
			writeJSON(w, map[string]any{
				"value": []map[string]any{{
					"name": "assessment-1",
					"properties": map[string]any{
						"displayName": "Disk encryption should be applied",
						"description": "Enable encryption at host.",
						"status":      map[string]string{"code": "Unhealthy", "severity": "Medium"},
						"resourceDetails": map[string]string{
							"id": "/subscriptions/sub-dev/resourceGroups/dev-rg/providers/Microsoft.Compute/virtualMachines/vm-1",
						},
						"timeGenerated": time.Now().Add(-12 * time.Hour).Format(time.RFC3339),
					},
				}},
			})
		default:
			writeJSON(w, map[string]string{"subscriptionId": "sub-dev", "state": "Enabled"})
		}
	})
}

func registerGCP(mux *http.ServeMux) {
	mux.HandleFunc("/gcp/projects/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			http.Error(w, `{"error":{"message":"unauthorized"}}`, http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]string{"projectId": "copilot-dev", "lifecycleState": "ACTIVE"})
	})

	mux.HandleFunc("/gcp/billing/projects/copilot-dev/costs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"costs": []map[string]any{{
				"date":     time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
				"service":  "Compute Engine",
				"amount":   9.75,
				"currency": "USD",
				"region":   "us-central1",
			}},
		})
	})

	mux.HandleFunc("/gcp/compute/projects/copilot-dev/zones/us-central1-a/instances", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"items": []map[string]any{{
				"id":                "5551212",
				"name":              "batch-worker",
				"machineType":       "e2-medium",
				"status":            "RUNNING",
				"labels":            map[string]string{"team": "platform"},
				"creationTimestamp": time.Now().AddDate(0, -1, 0).Format(time.RFC3339),
			}},
		})
	})

	mux.HandleFunc("/gcp/securitycenter/projects/copilot-dev/findings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"findings": []map[string]any{{
				"name":         "organizations/1/sources/2/findings/3",
				"category":     "OPEN_FIREWALL",
				"severity":     "HIGH",
				"resourceName": "//compute.googleapis.com/projects/copilot-dev/zones/us-central1-a/instances/batch-worker",
				"description":  "Firewall rule allows 0.0.0.0/0.",
				"eventTime":    time.Now().Add(-2 * time.Hour).Format(time.RFC3339),
			}},
		})
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
