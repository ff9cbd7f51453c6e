package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/foc.go/pkg/comm/mqtt"
	"github.com/robotalks/foc.go/pkg/telemetry"
)

var (
	mqttURL  = "mqtt://localhost:1883/robo/"
	encoding = "json"
)

func init() {
	if val := os.Getenv("FOC_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&encoding, "encoding", encoding, "Telemetry encoding: json, proto.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	enc, err := telemetry.EncodingByName(encoding)
	if err != nil {
		log.Fatalln(err)
	}
	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if !strings.Contains(topic, "/telemetry/") {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		rec, err := enc.Decode(payload)
		if err != nil {
			log.Printf("%s: bad telemetry: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, rec)
	}))
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
