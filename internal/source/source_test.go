package source

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine_LineNumbers(t *testing.T) {
	s := NewString("a\nb\rc\r\nd")

	var lines []string
	var numbers []int64
	for {
		line, ok, err := s.ReadLine()
		require.NoError(t, err)
		if !ok {
			break
		}
		lines = append(lines, line)
		numbers = append(numbers, s.LineNumber())
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, lines)
	assert.Equal(t, []int64{1, 2, 3, 4}, numbers)
	assert.Equal(t, int64(4), s.LineNumber())

	// Reading past the end never bumps the counter again.
	c, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, EOF, c)
	assert.Equal(t, int64(4), s.LineNumber())
}

func TestLineCounting(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"bare LF", "\n", 1},
		{"bare CR", "\r", 1},
		{"CRLF counts once", "\r\n", 1},
		{"LF CR counts twice", "\n\r", 2},
		{"mixed", "a\nb\rc\r\nd", 4},
		{"trailing text counts at EOF", "abc", 1},
		{"empty input", "", 1},
		{"two CRLF", "x\r\ny\r\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewString(tt.input)
			for {
				c, err := s.Read()
				require.NoError(t, err)
				if c == EOF {
					break
				}
			}
			if got := s.LineNumber(); got != tt.want {
				t.Errorf("LineNumber() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPeek_DoesNotConsume(t *testing.T) {
	s := NewString("\r\nx")
	assert.Equal(t, Undefined, s.LastChar())

	c, err := s.Peek()
	require.NoError(t, err)
	assert.Equal(t, '\r', c)
	assert.Equal(t, Undefined, s.LastChar())
	assert.Equal(t, int64(0), s.LineNumber())
	assert.Equal(t, int64(0), s.Position())

	c, err = s.Read()
	require.NoError(t, err)
	assert.Equal(t, '\r', c)
	assert.Equal(t, '\r', s.LastChar())
	assert.Equal(t, int64(1), s.LineNumber())

	c, err = s.Peek()
	require.NoError(t, err)
	assert.Equal(t, '\n', c)
	assert.Equal(t, '\r', s.LastChar())

	_, _ = s.Read()
	assert.Equal(t, int64(1), s.LineNumber())
	c, _ = s.Read()
	assert.Equal(t, 'x', c)
	assert.Equal(t, int64(2), s.LineNumber())
}

func TestEOF_IsSticky(t *testing.T) {
	s := NewString("\x00")

	c, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, rune(0), c, "NUL is ordinary data")
	assert.NotEqual(t, EOF, c)

	for i := 0; i < 3; i++ {
		c, err = s.Peek()
		require.NoError(t, err)
		assert.Equal(t, EOF, c)
		c, err = s.Read()
		require.NoError(t, err)
		assert.Equal(t, EOF, c)
	}
	assert.Equal(t, EOF, s.LastChar())
	assert.Equal(t, int64(1), s.Position())
}

func TestPositions_CountRunesAndBytes(t *testing.T) {
	s := NewString("é,€\n")
	for {
		c, err := s.Read()
		require.NoError(t, err)
		if c == EOF {
			break
		}
	}
	assert.Equal(t, int64(4), s.Position())
	assert.Equal(t, int64(2+1+3+1), s.BytesRead())
}

func TestLookAhead(t *testing.T) {
	s := NewString("ab€d")
	buf := make([]rune, 3)

	n, err := s.LookAhead(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []rune{'a', 'b', '€'}, buf)
	assert.Equal(t, int64(0), s.Position())

	c, _ := s.Read()
	assert.Equal(t, 'a', c)

	buf = make([]rune, 5)
	n, err = s.LookAhead(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "input ends before the buffer is full")
	assert.Equal(t, []rune{'b', '€', 'd'}, buf[:n])
}

func TestReadInto(t *testing.T) {
	s := NewString("hello")
	buf := make([]rune, 3)

	n, err := s.ReadInto(buf)
	require.NoError(t, err)
	assert.Equal(t, "hel", string(buf[:n]))

	n, err = s.ReadInto(buf)
	require.NoError(t, err)
	assert.Equal(t, "lo", string(buf[:n]))

	n, err = s.ReadInto(buf)
	assert.Equal(t, 0, n)
	assert.True(t, errors.Is(err, io.EOF))
	assert.Equal(t, EOF, s.LastChar())
}

func TestReadLine_Empty(t *testing.T) {
	s := NewString("")
	line, ok, err := s.ReadLine()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, line)
}

func TestReadError_IsSticky(t *testing.T) {
	boom := errors.New("boom")
	s := New(io.MultiReader(strings.NewReader("ab"), iotest.ErrReader(boom)))

	c, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, 'a', c)
	c, err = s.Read()
	require.NoError(t, err)
	assert.Equal(t, 'b', c)

	c, err = s.Read()
	assert.Equal(t, EOF, c)
	assert.ErrorIs(t, err, boom)

	_, err = s.Peek()
	assert.ErrorIs(t, err, boom)
}
