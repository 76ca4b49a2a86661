package ml

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/AquaNexus/aquanexus_backend/config"
	"github.com/AquaNexus/aquanexus_backend/internal/models"
	"github.com/AquaNexus/aquanexus_backend/internal/store"
	"github.com/AquaNexus/aquanexus_backend/internal/timeseries"
)

// Broadcaster pushes fresh forecasts out to connected clients.
type Broadcaster interface {
	BroadcastForecast(forecast *models.PredictionResponse)
}

// ForecastService runs the background forecasting loop: it periodically
// refreshes forecasts from the latest trained models and retrains each
// model on the accumulated readings.
type ForecastService struct {
	store       store.DataStore
	broadcaster Broadcaster
	stopChan    chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool

	modelsDir        string
	forecastInterval time.Duration
	retrainInterval  time.Duration
	minReadings      int
	epochs           int
	batchSize        int
	patience         int

	// One mutex per model type and horizon so concurrent training of
	// the same model serializes while different models proceed.
	trainMu   sync.Mutex
	trainKeys map[string]*sync.Mutex

	forecastMu      sync.RWMutex
	latestForecasts map[string]*models.PredictionResponse
}

// NewForecastService creates the service. The broadcaster may be nil
// when no realtime clients exist.
func NewForecastService(dataStore store.DataStore, broadcaster Broadcaster, cfg config.MLConfig) *ForecastService {
	return &ForecastService{
		store:            dataStore,
		broadcaster:      broadcaster,
		stopChan:         make(chan struct{}),
		modelsDir:        cfg.ModelsDir,
		forecastInterval: cfg.ForecastInterval,
		retrainInterval:  cfg.RetrainInterval,
		minReadings:      cfg.MinReadings,
		epochs:           cfg.Epochs,
		batchSize:        cfg.BatchSize,
		patience:         cfg.Patience,
		trainKeys:        make(map[string]*sync.Mutex),
		latestForecasts:  make(map[string]*models.PredictionResponse),
	}
}

// Start begins the background forecast and retrain tasks.
func (s *ForecastService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Println("🤖 Starting Forecast Service...")

	s.wg.Add(1)
	go s.forecastTask()

	s.wg.Add(1)
	go s.retrainTask()

	log.Println("✅ Forecast Service started")
}

// Stop stops all background tasks and waits for them to finish.
func (s *ForecastService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	log.Println("🛑 Stopping Forecast Service...")
	close(s.stopChan)
	s.wg.Wait()
	log.Println("✅ Forecast Service stopped")
}

// horizonsFor lists the horizons maintained for a model type. Height
// gets a weekly outlook on top of the hourly one.
func horizonsFor(modelType models.ModelType) []models.Horizon {
	if modelType == models.ModelHeight {
		return []models.Horizon{models.HorizonShort, models.HorizonMedium}
	}
	return []models.Horizon{models.HorizonShort}
}

func forecastKey(modelType models.ModelType, horizon models.Horizon) string {
	return fmt.Sprintf("%s_%s", modelType, horizon)
}

func (s *ForecastService) lockFor(key string) *sync.Mutex {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()
	mu, ok := s.trainKeys[key]
	if !ok {
		mu = &sync.Mutex{}
		s.trainKeys[key] = mu
	}
	return mu
}

// readingsFor fetches the raw readings feeding a model type's pipeline.
func (s *ForecastService) readingsFor(modelType models.ModelType) []timeseries.Reading {
	cfg, ok := modelType.Config()
	if !ok {
		return nil
	}
	if cfg.Kind == models.DataKindFish {
		return models.FishReadingsToRecords(s.store.GetRecentFishReadings(0))
	}
	return models.PlantReadingsToRecords(s.store.GetRecentPlantReadings(0))
}

// forecastTask periodically refreshes forecasts from the latest models.
func (s *ForecastService) forecastTask() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.forecastInterval)
	defer ticker.Stop()

	// Run once on start so clients have data immediately.
	s.refreshForecasts()

	for {
		select {
		case <-ticker.C:
			s.refreshForecasts()
		case <-s.stopChan:
			return
		}
	}
}

// refreshForecasts runs a prediction for every maintained model and
// broadcasts the successful ones.
func (s *ForecastService) refreshForecasts() {
	log.Println("🔮 Refreshing forecasts...")

	updated := 0
	for _, modelType := range models.AllModelTypes() {
		readings := s.readingsFor(modelType)
		if len(readings) == 0 {
			continue
		}
		for _, horizon := range horizonsFor(modelType) {
			response := Predict(&models.PredictionRequest{
				Readings:          readings,
				ModelType:         modelType,
				PredictionHorizon: horizon,
				ModelsDir:         s.modelsDir,
			})
			if !response.Success {
				continue
			}

			key := forecastKey(modelType, horizon)
			s.forecastMu.Lock()
			s.latestForecasts[key] = response
			s.forecastMu.Unlock()

			if s.broadcaster != nil {
				s.broadcaster.BroadcastForecast(response)
			}
			updated++
		}
	}

	log.Printf("✅ Forecast refresh complete: %d forecasts updated", updated)
}

// retrainTask periodically retrains every model on accumulated data.
func (s *ForecastService) retrainTask() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.retrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RetrainAll()
		case <-s.stopChan:
			return
		}
	}
}

// RetrainAll trains a new version of every model with enough data.
func (s *ForecastService) RetrainAll() {
	log.Println("🤖 Retraining models...")

	trained := 0
	for _, modelType := range models.AllModelTypes() {
		readings := s.readingsFor(modelType)
		if len(readings) < s.minReadings {
			log.Printf("   ✗ Skipping %s: %d readings, need %d", modelType, len(readings), s.minReadings)
			continue
		}
		for _, horizon := range horizonsFor(modelType) {
			if s.trainOne(modelType, horizon, readings) {
				trained++
			}
		}
	}

	log.Printf("✅ Retrain complete: %d models trained", trained)
}

// trainOne trains one model under its per-model lock and records the
// run in the data store.
func (s *ForecastService) trainOne(modelType models.ModelType, horizon models.Horizon, readings []timeseries.Reading) bool {
	key := forecastKey(modelType, horizon)
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	response := TrainModel(&models.TrainingRequest{
		Readings:          readings,
		ModelType:         modelType,
		PredictionHorizon: horizon,
		Epochs:            s.epochs,
		BatchSize:         s.batchSize,
		Patience:          s.patience,
		ModelsDir:         s.modelsDir,
	})
	if !response.Success {
		log.Printf("   ✗ Training %s/%s failed: %s", modelType, horizon, response.Error)
		return false
	}

	if err := s.store.RecordTraining(response.Results); err != nil {
		log.Printf("⚠️ Failed to record training run for %s/%s: %v", modelType, horizon, err)
	}
	return true
}

// LatestForecast returns the most recent forecast for a model, or nil
// when none has been generated yet.
func (s *ForecastService) LatestForecast(modelType models.ModelType, horizon models.Horizon) *models.PredictionResponse {
	s.forecastMu.RLock()
	defer s.forecastMu.RUnlock()
	return s.latestForecasts[forecastKey(modelType, horizon)]
}

// Status reports the service state for the status endpoint.
func (s *ForecastService) Status() map[string]interface{} {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	s.forecastMu.RLock()
	cached := len(s.latestForecasts)
	s.forecastMu.RUnlock()

	return map[string]interface{}{
		"running":           running,
		"models_dir":        s.modelsDir,
		"forecast_interval": s.forecastInterval.String(),
		"retrain_interval":  s.retrainInterval.String(),
		"min_readings":      s.minReadings,
		"cached_forecasts":  cached,
	}
}
