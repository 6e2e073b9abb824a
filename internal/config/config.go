package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Audio   AudioConfig
	Engine  EngineConfig
	Mapper  MapperConfig
	Control ControlConfig
}

type AudioConfig struct {
	SampleRate int
	BlockSize  int
}

type EngineConfig struct {
	Genre          string
	Volume         float64
	SmoothAlpha    float64
	ReverbFeedback float64
	Waveform       string // "" or "auto" = per-voice selection
	// Effects are master-chain directives, e.g. "delay 250,0.4,0.3",
	// "eq 1.0,1.0,1.2", "comp -20,4,5,100,6".
	Effects []string
}

type MapperConfig struct {
	Strategy  string // "tilt" or "persensor"
	BaseNote  int
	FSRCount  int
	PollHz    int
	FSRTau    float64
	FSRGain   float64
	GyroRange float64
}

type ControlConfig struct {
	Port string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("audio.sample_rate", 44100)
	viper.SetDefault("audio.block_size", 512)
	viper.SetDefault("engine.genre", "jazz")
	viper.SetDefault("engine.volume", 1.0)
	viper.SetDefault("engine.smooth_alpha", 0.9)
	viper.SetDefault("engine.reverb_feedback", 0.5)
	viper.SetDefault("engine.waveform", "auto")
	viper.SetDefault("engine.effects", []string{})
	viper.SetDefault("mapper.strategy", "tilt")
	viper.SetDefault("mapper.base_note", 60)
	viper.SetDefault("mapper.fsr_count", 10)
	viper.SetDefault("mapper.poll_hz", 60)
	viper.SetDefault("mapper.fsr_tau", 0.05)
	viper.SetDefault("mapper.fsr_gain", 1.0)
	viper.SetDefault("mapper.gyro_range", 250.0)
	viper.SetDefault("control.port", "3000")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Audio: AudioConfig{
			SampleRate: viper.GetInt("audio.sample_rate"),
			BlockSize:  viper.GetInt("audio.block_size"),
		},
		Engine: EngineConfig{
			Genre:          viper.GetString("engine.genre"),
			Volume:         viper.GetFloat64("engine.volume"),
			SmoothAlpha:    viper.GetFloat64("engine.smooth_alpha"),
			ReverbFeedback: viper.GetFloat64("engine.reverb_feedback"),
			Waveform:       viper.GetString("engine.waveform"),
			Effects:        viper.GetStringSlice("engine.effects"),
		},
		Mapper: MapperConfig{
			Strategy:  viper.GetString("mapper.strategy"),
			BaseNote:  viper.GetInt("mapper.base_note"),
			FSRCount:  viper.GetInt("mapper.fsr_count"),
			PollHz:    viper.GetInt("mapper.poll_hz"),
			FSRTau:    viper.GetFloat64("mapper.fsr_tau"),
			FSRGain:   viper.GetFloat64("mapper.fsr_gain"),
			GyroRange: viper.GetFloat64("mapper.gyro_range"),
		},
		Control: ControlConfig{
			Port: viper.GetString("control.port"),
		},
	}

	return cfg, nil
}
