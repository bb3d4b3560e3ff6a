package pixel

import (
	"bytes"
	"errors"
	"testing"
)

func TestNormalize_ChannelOrder(t *testing.T) {
	// One 2x2 frame, pixels numbered 0..3, each pixel a distinct
	// (R,G,B) = (10n, 10n+1, 10n+2) so any reordering mistake shows up.
	want := []byte{
		0, 1, 2, 10, 11, 12,
		20, 21, 22, 30, 31, 32,
	}

	tests := []struct {
		name   string
		format Format
		input  []byte
	}{
		{
			name:   "RGB8 passthrough",
			format: FormatRGB8,
			input: []byte{
				0, 1, 2, 10, 11, 12,
				20, 21, 22, 30, 31, 32,
			},
		},
		{
			name:   "RGBA8 drops alpha",
			format: FormatRGBA8,
			input: []byte{
				0, 1, 2, 99, 10, 11, 12, 99,
				20, 21, 22, 99, 30, 31, 32, 99,
			},
		},
		{
			name:   "BGR8 reorders channels",
			format: FormatBGR8,
			input: []byte{
				2, 1, 0, 12, 11, 10,
				22, 21, 20, 32, 31, 30,
			},
		},
		{
			name:   "BGRA8 reorders and drops alpha",
			format: FormatBGRA8,
			input: []byte{
				2, 1, 0, 99, 12, 11, 10, 99,
				22, 21, 20, 99, 32, 31, 30, 99,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input, 2, 2, tt.format)
			if err != nil {
				t.Fatalf("Normalize() unexpected error: %v", err)
			}
			if len(got) != 2*2*Channels {
				t.Fatalf("Normalize() output length = %d, want %d", len(got), 2*2*Channels)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("Normalize() = %v, want %v", got, want)
			}
		})
	}
}

func TestNormalize_OutputLength(t *testing.T) {
	// For every supported layout, a valid w*h*bpp buffer yields exactly
	// w*h*3 canonical bytes.
	dims := []struct{ w, h int }{{1, 1}, {3, 2}, {16, 9}, {640, 480}}
	formats := []Format{FormatRGB8, FormatRGBA8, FormatBGR8, FormatBGRA8}

	for _, d := range dims {
		for _, f := range formats {
			input := make([]byte, d.w*d.h*f.BytesPerPixel())
			got, err := Normalize(input, d.w, d.h, f)
			if err != nil {
				t.Fatalf("Normalize(%s, %dx%d) unexpected error: %v", f, d.w, d.h, err)
			}
			if len(got) != d.w*d.h*Channels {
				t.Errorf("Normalize(%s, %dx%d) length = %d, want %d",
					f, d.w, d.h, len(got), d.w*d.h*Channels)
			}
		}
	}
}

func TestNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		width   int
		height  int
		format  Format
		wantErr error
	}{
		{
			name:    "buffer too short",
			input:   make([]byte, 11),
			width:   2,
			height:  2,
			format:  FormatRGB8,
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "buffer too long",
			input:   make([]byte, 17),
			width:   2,
			height:  2,
			format:  FormatRGBA8,
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "zero width",
			input:   []byte{},
			width:   0,
			height:  2,
			format:  FormatRGB8,
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "unknown format",
			input:   make([]byte, 12),
			width:   2,
			height:  2,
			format:  FormatUnknown,
			wantErr: ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input, tt.width, tt.height, tt.format)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Normalize() error = %v, want %v", err, tt.wantErr)
			}
			if got != nil {
				t.Errorf("Normalize() returned a buffer alongside error %v", err)
			}
		})
	}
}

func TestNormalize_DoesNotAliasInput(t *testing.T) {
	input := []byte{1, 2, 3}
	got, err := Normalize(input, 1, 1, FormatRGB8)
	if err != nil {
		t.Fatalf("Normalize() unexpected error: %v", err)
	}

	input[0] = 200
	if got[0] != 1 {
		t.Error("Normalize() output aliases the input buffer")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"RGB", FormatRGB8},
		{"RGBA", FormatRGBA8},
		{"BGR", FormatBGR8},
		{"BGRA", FormatBGRA8},
		{"NV12", FormatUnknown},
		{"I420", FormatUnknown},
		{"", FormatUnknown},
		{"rgb", FormatUnknown}, // caps names are case-sensitive
	}

	for _, tt := range tests {
		if got := ParseFormat(tt.name); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFormat_BytesPerPixel(t *testing.T) {
	tests := []struct {
		format Format
		want   int
	}{
		{FormatRGB8, 3},
		{FormatBGR8, 3},
		{FormatRGBA8, 4},
		{FormatBGRA8, 4},
		{FormatUnknown, 0},
	}

	for _, tt := range tests {
		if got := tt.format.BytesPerPixel(); got != tt.want {
			t.Errorf("%s.BytesPerPixel() = %d, want %d", tt.format, got, tt.want)
		}
	}
}
