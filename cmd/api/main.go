package main

import (
	"fmt"
	"net/http"

	"github.com/annam-hrm/attendance-ingest-go/internal/config"
	appHTTP "github.com/annam-hrm/attendance-ingest-go/internal/handler/http"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/cron"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/database"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/employeecache"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/jwt"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/timeparse"
	"github.com/annam-hrm/attendance-ingest-go/internal/repository/postgresql"
	derivationService "github.com/annam-hrm/attendance-ingest-go/internal/service/derivation"
	ingestService "github.com/annam-hrm/attendance-ingest-go/internal/service/ingest"
	replayService "github.com/annam-hrm/attendance-ingest-go/internal/service/replay"
	unknownpunchService "github.com/annam-hrm/attendance-ingest-go/internal/service/unknownpunch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	tz, err := timeparse.NewNormalizer(cfg.Ingest.DeviceTimezone)
	if err != nil {
		fmt.Println("Error resolving device timezone:", err)
		return
	}

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	calendarRepo := postgresql.NewWorkCalendarRepository(db)
	deviceRepo := postgresql.NewDeviceRepository(db)
	unknownPunchRepo := postgresql.NewUnknownPunchRepository(db)
	processingLogRepo := postgresql.NewProcessingLogRepository(db)
	txManager := postgresql.NewTxManager(db, cfg.Ingest.StoreRetryAttempts)

	directory := employeecache.New(employeeRepo)
	JWTService := jwt.NewJWTService(cfg.Operator.JWTSecret)

	deriver := derivationService.NewService(cfg.Derivation, calendarRepo, tz)
	ingestor := ingestService.NewService(
		ingestService.NewParser(tz),
		tz,
		txManager,
		attendanceRepo,
		directory,
		calendarRepo,
		unknownPunchRepo,
		processingLogRepo,
		deriver,
	)
	replaySvc := replayService.NewService(processingLogRepo, ingestor)
	unknownPunchSvc := unknownpunchService.NewService(unknownPunchRepo, directory, ingestor)

	scheduler := cron.NewScheduler()
	scheduler.AddJob("replay-errored-batches", cfg.Ingest.ReplayInterval, replaySvc.ReplayErrored)
	scheduler.Start()
	defer scheduler.Stop()

	iclockHandler := appHTTP.NewIclockHandler(ingestor, deviceRepo, tz.OffsetHours(), cfg.Ingest.RequestTimeout)
	operatorHandler := appHTTP.NewOperatorHandler(
		attendanceRepo,
		unknownPunchSvc,
		replaySvc,
		ingestor,
		processingLogRepo,
		deviceRepo,
		JWTService,
		cfg.Operator.JWTSecret,
	)

	router := appHTTP.NewRouter(cfg.App.Env, JWTService, iclockHandler, operatorHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
