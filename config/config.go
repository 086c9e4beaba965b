package config

// Clamp ranges for the runtime detection tunables. Values outside these
// ranges are pulled back to the nearest bound wherever they enter the
// system (config file, environment, HTTP).
const (
	SensitivityMin = 10
	SensitivityMax = 100

	MinBlobAreaMin = 100
	MinBlobAreaMax = 2000

	CooldownSecondsMin = 1
	CooldownSecondsMax = 30
)

type Config struct {
	// Camera device index or stream URI, as understood by OpenCV.
	CameraURI   string `env:"SCARECAM_CAMERA_URI"`
	FrameWidth  int    `env:"SCARECAM_FRAME_WIDTH"`
	FrameHeight int    `env:"SCARECAM_FRAME_HEIGHT"`
	FrameRate   int    `env:"SCARECAM_FRAME_RATE"`

	Sensitivity     int `env:"SCARECAM_SENSITIVITY"`
	MinBlobArea     int `env:"SCARECAM_MIN_BLOB_AREA"`
	CooldownSeconds int `env:"SCARECAM_COOLDOWN_SECONDS"`

	// Directory scanned for scare clips (.wav, .mp3, .ogg). A missing or
	// empty directory is not an error, playback falls back to a
	// synthesized cue.
	SoundsDir string `env:"SCARECAM_SOUNDS_DIR"`

	// Directory for the event database and snapshots.
	DataDir string `env:"SCARECAM_DATA_DIR"`

	HTTPAddr string `env:"SCARECAM_HTTP_ADDR"`

	// Optional MQTT announcement of scare events. Disabled when the
	// broker is empty.
	MQTTBroker string `env:"SCARECAM_MQTT_BROKER"`
	MQTTTopic  string `env:"SCARECAM_MQTT_TOPIC"`

	// Hour-of-day window during which push and MQTT notifications are
	// sent. Start == End means always. The scare itself ignores this.
	NotificationHoursStart int `env:"SCARECAM_NOTIFY_HOURS_START"`
	NotificationHoursEnd   int `env:"SCARECAM_NOTIFY_HOURS_END"`

	// Contact for the webpush VAPID subject, e.g. mailto:ops@example.com.
	PushSubscriber string `env:"SCARECAM_PUSH_SUBSCRIBER"`
}

func Default() *Config {
	return &Config{
		CameraURI:       "0",
		FrameWidth:      640,
		FrameHeight:     480,
		FrameRate:       30,
		Sensitivity:     25,
		MinBlobArea:     500,
		CooldownSeconds: 5,
		SoundsDir:       "scary_sounds",
		DataDir:         "data",
		HTTPAddr:        ":8443",
		MQTTTopic:       "scarecam/events",
		PushSubscriber:  "mailto:admin@localhost",
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Normalize pulls the detection tunables back into their allowed ranges.
func (c *Config) Normalize() {
	c.Sensitivity = clamp(c.Sensitivity, SensitivityMin, SensitivityMax)
	c.MinBlobArea = clamp(c.MinBlobArea, MinBlobAreaMin, MinBlobAreaMax)
	c.CooldownSeconds = clamp(c.CooldownSeconds, CooldownSecondsMin, CooldownSecondsMax)
}
