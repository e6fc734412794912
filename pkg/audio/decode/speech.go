// ABOUTME: Speech type classifier
// ABOUTME: Maps raw engine output type codes to audio.SpeechType per codec family
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiodecoder/pkg/audio"
)

// Raw type codes as each engine reports them. iSAC and Opus report 0 for
// speech; the others report 1. Code 2 is comfort noise everywhere.
var (
	speechTable = map[int16]audio.SpeechType{
		1: audio.Speech,
		2: audio.ComfortNoise,
	}
	zeroSpeechTable = map[int16]audio.SpeechType{
		0: audio.Speech,
		1: audio.Speech,
		2: audio.ComfortNoise,
	}
	cngTable = map[int16]audio.SpeechType{
		2: audio.ComfortNoise,
	}
)

var speechTables = map[family]map[int16]audio.SpeechType{
	familyPCMU:    speechTable,
	familyPCMA:    speechTable,
	familyPCM16B:  speechTable,
	familyG722:    speechTable,
	familyILBC:    speechTable,
	familyISAC:    zeroSpeechTable,
	familyISACFix: zeroSpeechTable,
	familyOpus:    zeroSpeechTable,
	familyCNG:     cngTable,
}

// rawSpeech is the code each family reports for regular speech. Concealment
// output carries no engine type and is classified with it.
var rawSpeech = map[family]int16{
	familyPCMU:    1,
	familyPCMA:    1,
	familyPCM16B:  1,
	familyG722:    1,
	familyILBC:    1,
	familyISAC:    0,
	familyISACFix: 0,
	familyOpus:    0,
}

// rawComfortNoise is the code the CNG family reports for generated noise
const rawComfortNoise int16 = 2

// classify converts a raw engine code for family f
func classify(f family, raw int16) (audio.SpeechType, error) {
	if st, ok := speechTables[f][raw]; ok {
		return st, nil
	}
	return audio.Speech, fmt.Errorf("%w: code %d", ErrSpeechType, raw)
}
