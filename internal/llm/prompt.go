package llm

import (
	"strings"

	"github.com/pkordes/family-trip/internal/domain"
)

// noText is the vision model's answer for an image without text.
const noText = "NONE"

const visionPrompt = "Extract all text from this image exactly as it appears. " +
	"Include any dates, flight numbers, names, addresses, and other details. " +
	"If there is no text, respond with the single word: " + noText

func buildSystemPrompt(families []domain.Family) string {
	var fams []string
	for _, f := range families {
		fams = append(fams, f.ID+" ("+f.Name+")")
	}

	parts := []string{
		"You extract trip information from text and return ONLY a JSON object that matches the JSON Schema provided.",
		"Family ids: " + strings.Join(fams, ", ") + ".",
		"Key every per-family object by family id.",
		"Each flight is an object with departureDate, airline, flightNumber, departureAirport, departureTime, arrivalAirport, arrivalTime; a family may have several flights as an array.",
		"Use 3-letter airport codes and times like \"10:05 AM\".",
		"The trip has two main stays, Santorini and Crete: put a family's Santorini lodging in accommodationSantorini and Crete lodging in accommodationCrete, as arrays of {checkIn, details}.",
		"Extract trip dates as YYYY-MM-DD if present.",
		"Omit any field you have no data for. Never output null or empty strings.",
	}
	return strings.Join(parts, " ")
}
