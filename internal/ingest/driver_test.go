// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gps_logger/internal/gps"
	"github.com/relabs-tech/gps_logger/internal/logstore"
	"github.com/relabs-tech/gps_logger/internal/sim"
)

var (
	gga       = sim.Sentence("GPGGA,123519,4304.3860,N,08924.0720,W,1,10,1.0,260.0,M,-33.9,M,,")
	ggaNoFix  = sim.Sentence("GPGGA,123520,4304.3860,N,08924.0720,W,0,00,99.9,,M,,M,,")
	ggaNoAlt  = sim.Sentence("GPGGA,123521,4304.3860,N,08924.0720,W,1,08,1.2,,M,,M,,")
	ggaZero   = sim.Sentence("GPGGA,123522,0000.0000,N,08924.0720,W,1,08,1.2,260.0,M,,M,,")
	rmc       = sim.Sentence("GPRMC,123519,A,4304.3860,N,08924.0720,W,21.6,90.0,191026,003.1,W")
	rmcVoid   = sim.Sentence("GPRMC,123519,V,4304.3860,N,08924.0720,W,21.6,90.0,191026,003.1,W")
	gsv       = "$GPGSV,3,1,11,03,03,111,00,04,15,270,00,06,01,010,00,13,06,292,00*74"
	badSum    = strings.Replace(gga, "123519", "123518", 1)
	fixedTime = time.Date(2026, 10, 19, 12, 35, 19, 0, time.UTC)
)

type memSink struct {
	samples []gps.Sample
	failAt  int
}

func (m *memSink) Write(s gps.Sample) error {
	if m.failAt > 0 && len(m.samples)+1 == m.failAt {
		return errors.New("disk full")
	}
	m.samples = append(m.samples, s)
	return nil
}

func newDriver(sinks ...Sink) *Driver {
	d := New(nil, sinks...)
	d.SetClock(func() time.Time { return fixedTime })
	return d
}

func TestStep_FusesPositionAndVelocity(t *testing.T) {
	sink := &memSink{}
	d := newDriver(sink)

	_, ok, err := d.Step(gga)
	require.NoError(t, err)
	assert.False(t, ok)

	s, ok, err := d.Step(rmc)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fixedTime, s.Timestamp)
	assert.InDelta(t, 40.0032, s.SpeedKmh, 1e-9)

	assert.Equal(t, 1, d.Track().Len())
	require.Len(t, sink.samples, 1)
	assert.Equal(t, s, sink.samples[0])

	st := d.Stats()
	assert.Equal(t, 2, st.Lines)
	assert.Equal(t, 1, st.Positions)
	assert.Equal(t, 1, st.Velocities)
	assert.Equal(t, 1, st.Emitted)
	assert.Equal(t, 1, st.Accepted)
}

func TestStep_CountsEveryOutcome(t *testing.T) {
	d := newDriver()
	lines := []string{
		"",
		"garbage",
		rmc, // before any position
		badSum,
		"$GPGGA,bad*00",
		gsv,
		ggaNoFix,
		gga,
		rmcVoid,
		rmc,
		ggaNoAlt,
		rmc,
		ggaZero,
		rmc,
	}
	for _, line := range lines {
		_, _, err := d.Step(line)
		require.NoError(t, err)
	}

	st := d.Stats()
	assert.Equal(t, len(lines), st.Lines)
	assert.Equal(t, 2, st.NotSentence)
	assert.Equal(t, 2, st.ParseErrors)
	assert.Equal(t, 1, st.Others)
	assert.Equal(t, 4, st.Positions)
	assert.Equal(t, 1, st.PositionsNoFix)
	assert.Equal(t, 5, st.Velocities)
	assert.Equal(t, 1, st.VelocitiesVoid)
	assert.Equal(t, 1, st.StaleVelocity)
	assert.Equal(t, 3, st.Emitted)
	assert.Equal(t, 1, st.RejectedNoAltitude)
	assert.Equal(t, 1, st.RejectedZeroLatitude)
	assert.Equal(t, 2, st.Rejected())
	assert.Equal(t, 1, st.Accepted)
	assert.Equal(t, 1, d.Track().Len())
}

func TestStep_PersistFailureDoesNotAppend(t *testing.T) {
	sink := &memSink{failAt: 2}
	d := newDriver(sink)

	for _, line := range []string{gga, rmc} {
		_, _, err := d.Step(line)
		require.NoError(t, err)
	}

	_, ok, err := d.Step(rmc)
	assert.False(t, ok)
	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.EqualError(t, perr.Err, "disk full")
	assert.Equal(t, fixedTime, perr.Sample.Timestamp)

	assert.Equal(t, 1, d.Track().Len())
	assert.Len(t, sink.samples, 1)
}

func TestStep_StopsAtFirstFailingSink(t *testing.T) {
	first := &memSink{failAt: 1}
	second := &memSink{}
	d := newDriver(first, second)

	_, _, _ = d.Step(gga)
	_, _, err := d.Step(rmc)
	require.Error(t, err)
	assert.Empty(t, second.samples)
}

func TestStep_EarlierSinkKeepsSampleOnLaterFailure(t *testing.T) {
	first := &memSink{}
	second := &memSink{failAt: 1}
	d := newDriver(first, second)

	_, _, _ = d.Step(gga)
	_, _, err := d.Step(rmc)
	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.Len(t, first.samples, 1)
	assert.Empty(t, second.samples)
	assert.Equal(t, 0, d.Track().Len())
}

func TestRun_ReadsToEOF(t *testing.T) {
	d := newDriver()
	in := strings.Join([]string{gga, rmc, gsv, rmc}, "\r\n") + "\r\n"

	require.NoError(t, d.Run(context.Background(), strings.NewReader(in)))
	assert.Equal(t, 2, d.Track().Len())
	assert.Equal(t, 4, d.Stats().Lines)
}

func TestRun_SkipsOverlongNoise(t *testing.T) {
	sink := &memSink{}
	d := newDriver(sink)
	noise := strings.Repeat("\x00\xff", 40000)
	in := strings.Join([]string{gga, rmc, noise, gga, rmc}, "\r\n") + "\r\n"

	require.NoError(t, d.Run(context.Background(), strings.NewReader(in)))
	assert.Equal(t, 2, d.Track().Len())
	assert.Len(t, sink.samples, 2)

	st := d.Stats()
	assert.Equal(t, 5, st.Lines)
	assert.Equal(t, 1, st.ParseErrors)
	assert.Equal(t, 2, st.Accepted)
}

func TestRun_OverlongTailWithoutNewline(t *testing.T) {
	d := newDriver()
	in := gga + "\n" + rmc + "\n" + strings.Repeat("x", 3*MaxLineLength)

	require.NoError(t, d.Run(context.Background(), strings.NewReader(in)))
	assert.Equal(t, 1, d.Track().Len())
	assert.Equal(t, 3, d.Stats().Lines)
	assert.Equal(t, 1, d.Stats().ParseErrors)
}

type failingReader struct {
	data io.Reader
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	n, err := f.data.Read(p)
	if err == io.EOF {
		return n, f.err
	}
	return n, err
}

func TestRun_SourceFailureKeepsTrack(t *testing.T) {
	sink := &memSink{}
	d := newDriver(sink)
	cause := errors.New("device unplugged")
	r := &failingReader{
		data: strings.NewReader(gga + "\n" + rmc + "\n" + rmc + "\n"),
		err:  cause,
	}

	err := d.Run(context.Background(), r)
	var serr *SourceReadError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, 2, d.Track().Len())
	assert.Len(t, sink.samples, 2)
}

func TestRun_PersistFailureIsFatal(t *testing.T) {
	d := newDriver(&memSink{failAt: 1})
	in := strings.Join([]string{gga, rmc, rmc}, "\n")

	err := d.Run(context.Background(), strings.NewReader(in))
	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 0, d.Track().Len())
	assert.Equal(t, 2, d.Stats().Lines)
}

func TestRun_Cancelled(t *testing.T) {
	d := newDriver()
	pr, pw := io.Pipe()
	defer pr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, pr) }()

	_, err := io.WriteString(pw, gga+"\n"+rmc+"\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return d.Track().Len() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, d.Track().Len())
}

func TestRun_SimulatedStreamIntoCSV(t *testing.T) {
	sc := sim.DefaultScenario()
	sc.Seed = 11
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	csvLog, err := logstore.CreateCSV(t.TempDir(), start)
	require.NoError(t, err)

	d := New(nil, csvLog)
	tick := 0
	d.SetClock(func() time.Time {
		tick++
		return start.Add(time.Duration(tick) * time.Second)
	})

	in := strings.Join(sim.Lines(sc, 25, start), "\r\n")
	require.NoError(t, d.Run(context.Background(), strings.NewReader(in)))
	require.NoError(t, csvLog.Close())

	assert.Equal(t, 25, d.Track().Len())
	assert.Equal(t, 25, csvLog.Rows())

	records, err := logstore.ReadCSVFile(csvLog.Path())
	require.NoError(t, err)
	require.Len(t, records, 25)

	snap := d.Track().Snapshot()
	for i, r := range records {
		assert.Equal(t, logstore.RecordFromSample(snap.At(i)).Row(), r.Row(), "row %d", i)
	}
}
