package app

var WatchDirs = watchDirs
