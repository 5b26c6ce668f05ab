package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/ytdt/api"
)

const (
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
	shutdownTimeout    = 10 * time.Second

	// Jobs left in a running stage for this long belong to a dead process
	staleJobAge = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the job history over HTTP",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		detach, _ := cmd.Flags().GetBool("detach")
		if detach {
			exitOnError(startDetached())
			return
		}
		exitOnError(runServer())
	},
}

func init() {
	serveCmd.Flags().BoolP("detach", "d", false, "Run the server in the background")
}

func runServer() error {
	s, err := loadServices()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.requireHistory(); err != nil {
		return err
	}

	log := s.log
	jobMgr := s.jobManager()

	if n, err := jobMgr.ReconcileInterrupted(staleJobAge); err != nil {
		log.Warn("Failed to reconcile interrupted jobs", zap.Error(err))
	} else if n > 0 {
		log.Info("Marked interrupted jobs as failed", zap.Int("count", n))
	}

	router := api.SetupRouter(api.RouterConfig{
		JobManager: jobMgr,
		LogsDir:    s.config.Logging.LogsDir,
		Version:    version,
		Logger:     log,
		Events:     s.events,
	})

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Received shutdown signal")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
	return nil
}

// startDetached starts "ytdt serve" as a background process and waits
// until it answers health checks
func startDetached() error {
	s, err := loadServices()
	if err != nil {
		return err
	}
	baseURL := fmt.Sprintf("http://%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.Close()

	if isServerRunning(baseURL) {
		fmt.Println("Server already running at", baseURL)
		return nil
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"serve"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	cmd := exec.Command(execPath, args...)
	cmd.Env = os.Environ()

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	pid := cmd.Process.Pid
	cmd.Process.Release()

	if err := waitForServerReady(baseURL); err != nil {
		return err
	}
	fmt.Printf("Server started in background (PID: %d) at %s\n", pid, baseURL)
	return nil
}

// isServerRunning checks if the server is responding to health checks
func isServerRunning(baseURL string) bool {
	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// waitForServerReady polls the server until it's ready or timeout
func waitForServerReady(baseURL string) error {
	deadline := time.Now().Add(serverStartTimeout)
	for time.Now().Before(deadline) {
		if isServerRunning(baseURL) {
			return nil
		}
		time.Sleep(serverPollInterval)
	}
	return fmt.Errorf("server did not start within %v", serverStartTimeout)
}
